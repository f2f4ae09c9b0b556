package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readResult is one finished read.
type readResult struct {
	line string
	err  error
}

// prompter reads answers from a line-oriented input. Every read can be
// abandoned by cancelling ctx, so Ctrl+C never waits for Enter.
type prompter struct {
	ctx context.Context
	in  *bufio.Reader
	out io.Writer
	// tty is set when in is a terminal; secrets are then read with echo off.
	tty *os.File
	// pending is a line read that outlived a cancelled prompt. It is
	// collected by the next prompt instead of starting a second reader.
	pending chan readResult
}

// newPrompter creates a prompter over in/out.
func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{ctx: context.Background(), in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
	}
	return p
}

// withContext makes every later read return ctx.Err() once ctx is done.
func (p *prompter) withContext(ctx context.Context) *prompter {
	if ctx != nil {
		p.ctx = ctx
	}
	return p
}

// rawLine prints prompt and returns the next line without its terminator.
// Surrounding spaces are preserved. io.EOF is returned only when no input is left.
func (p *prompter) rawLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if p.pending == nil {
		ch := make(chan readResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- readResult{line: line, err: err}
		}()
		p.pending = ch
	}

	select {
	case <-p.ctx.Done():
		return "", p.ctx.Err()
	case r := <-p.pending:
		p.pending = nil
		if r.err != nil {
			if errors.Is(r.err, io.EOF) && r.line != "" {
				return strings.TrimRight(r.line, "\r\n"), nil
			}
			return "", r.err
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	}
}

// line prints prompt and returns the trimmed answer.
func (p *prompter) line(prompt string) (string, error) {
	s, err := p.rawLine(prompt)
	return strings.TrimSpace(s), err
}

// ask returns the answer, or def when the answer is empty.
func (p *prompter) ask(prompt, def string) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", prompt, def)
	} else {
		prompt += ": "
	}
	s, err := p.line(prompt)
	if err != nil {
		return "", err
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// confirm asks a yes/no question. An empty answer returns def.
func (p *prompter) confirm(prompt string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	s, err := p.line(fmt.Sprintf("%s %s: ", prompt, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		fmt.Fprintln(p.out, "Please answer y or n.")
		return p.confirm(prompt, def)
	}
}

// hidden reads a secret. On a terminal echo is turned off, unless a line is
// already waiting in the buffer or a read is still pending: that input was
// typed before the prompt and is taken from the buffer so nothing is lost
// or reordered.
func (p *prompter) hidden(prompt string) (string, error) {
	if p.tty == nil || p.pending != nil || p.in.Buffered() > 0 {
		return p.rawLine(prompt)
	}
	return readHiddenContext(p.ctx, p.tty, p.out, prompt)
}

// readHidden reads a line from the process's terminal with echo disabled.
func readHidden(out io.Writer, prompt string) (string, error) {
	return readHiddenContext(context.Background(), os.Stdin, out, prompt)
}

// readHiddenContext reads a line from f with echo disabled. When ctx is
// cancelled first the terminal state is restored and ctx.Err() returned.
func readHiddenContext(ctx context.Context, f *os.File, out io.Writer, prompt string) (string, error) {
	fd := int(f.Fd())
	state, err := term.GetState(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Fprint(out, prompt)
	ch := make(chan readResult, 1)
	go func() {
		b, err := term.ReadPassword(fd)
		ch <- readResult{line: string(b), err: err}
	}()

	select {
	case <-ctx.Done():
		_ = term.Restore(fd, state)
		fmt.Fprintln(out)
		return "", ctx.Err()
	case r := <-ch:
		fmt.Fprintln(out)
		if r.err != nil {
			return "", fmt.Errorf("failed to read input: %w", r.err)
		}
		return r.line, nil
	}
}
