package breach

import (
	"context"
	"fmt"
	"time"

	"github.com/breachnotifier/breach-notifier/internal/api"
	"github.com/breachnotifier/breach-notifier/internal/constants"
	"github.com/breachnotifier/breach-notifier/internal/logging"
	"github.com/breachnotifier/breach-notifier/internal/strength"
	"github.com/breachnotifier/breach-notifier/internal/validation"
)

// BreachSource is the primary email provider (HIBP).
type BreachSource interface {
	BreachedAccount(ctx context.Context, account string, opts api.BreachOptions) ([]api.Breach, error)
	PasteAccount(ctx context.Context, account string) ([]api.Paste, error)
}

// FallbackSource answers email lookups when the primary cannot (LeakCheck).
type FallbackSource interface {
	Lookup(ctx context.Context, email string) (*api.LeakCheckResult, error)
}

// PasswordSource counts how often a password appears in breach corpora.
// Implementations must never send the password itself.
type PasswordSource interface {
	Count(ctx context.Context, password string) (int64, error)
}

// EmailOptions tunes CheckEmail.
type EmailOptions struct {
	IncludeUnverified bool
	// Fallback allows LeakCheck to answer when HIBP cannot.
	Fallback bool
	// Pastes also fetches HIBP pastes.
	Pastes bool
	// Timeout bounds each provider call, retries included. The fallback
	// gets a budget of its own. Zero means only ctx applies.
	Timeout time.Duration
}

// PasswordOptions tunes CheckPassword.
type PasswordOptions struct {
	// Provider names the password source; "" selects Pwned Passwords.
	Provider string
	// Strength adds a local zxcvbn estimate.
	Strength bool
	// UserInputs are penalized by the strength estimate (e.g. the user's email).
	UserInputs []string
	// Timeout bounds the provider call, retries included.
	Timeout time.Duration
}

// Notifier performs lookups. It holds no per-lookup state and may be reused.
type Notifier struct {
	primary   BreachSource
	fallback  FallbackSource
	passwords map[string]PasswordSource
	logger    *logging.Logger
}

// NewNotifier creates a Notifier. primary and fallback may be nil; passwords
// maps provider names (constants.Provider*) to their sources.
func NewNotifier(primary BreachSource, fallback FallbackSource, passwords map[string]PasswordSource, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Nop()
	}
	if passwords == nil {
		passwords = map[string]PasswordSource{}
	}
	return &Notifier{
		primary:   primary,
		fallback:  fallback,
		passwords: passwords,
		logger:    logger,
	}
}

// CheckEmail looks email up in HIBP, falling back to LeakCheck when HIBP has
// no key, rejects the key or is still rate limited after retries.
func (n *Notifier) CheckEmail(ctx context.Context, email string, opts EmailOptions) EmailResult {
	logger, id := n.logger.WithLookupID()
	result := EmailResult{LookupID: id, Email: email, Provider: constants.ProviderHIBP}

	normalized, err := validation.ValidateEmail(email)
	if err != nil {
		result.Err = err
		return result
	}
	result.Email = normalized

	var breaches []api.Breach
	if n.primary == nil {
		err = api.ErrMissingAPIKey
	} else {
		logger.Debug().Str("provider", constants.ProviderHIBP).Msg("Checking email")
		callCtx, cancel := withBudget(ctx, opts.Timeout)
		breaches, err = n.primary.BreachedAccount(callCtx, normalized, api.BreachOptions{IncludeUnverified: opts.IncludeUnverified})
		cancel()
	}

	switch {
	case err == nil:
		result.Breaches = fromHIBP(breaches)
		result.Status = StatusClean
		if len(result.Breaches) > 0 {
			result.Status = StatusBreached
		}

	case api.IsNotFound(err):
		result.Status = StatusClean
		result.Breaches = []Breach{}

	case opts.Fallback && n.fallback != nil && fallbackReason(err) != "":
		result.FellBack = true
		result.FallbackReason = fallbackReason(err)
		logger.Info().Str("reason", result.FallbackReason).Msg("Falling back to LeakCheck")
		n.checkFallback(ctx, opts.Timeout, logger, &result)
		return result

	default:
		logger.Debug().Err(err).Msg("Email lookup failed")
		result.Status = StatusUnknown
		result.Err = err
		return result
	}

	if opts.Pastes {
		callCtx, cancel := withBudget(ctx, opts.Timeout)
		pastes, err := n.primary.PasteAccount(callCtx, normalized)
		cancel()
		switch {
		case err == nil:
			result.Pastes = pastes
		case api.IsNotFound(err):
			result.Pastes = []api.Paste{}
		default:
			logger.Warn().Err(err).Msg("Paste lookup failed")
			result.PasteErr = err
		}
	}

	return result
}

// checkFallback asks LeakCheck with a fresh budget; the primary may have
// spent its own waiting out rate limits.
func (n *Notifier) checkFallback(ctx context.Context, budget time.Duration, logger *logging.Logger, result *EmailResult) {
	result.Provider = constants.ProviderLeakCheck

	callCtx, cancel := withBudget(ctx, budget)
	defer cancel()
	res, err := n.fallback.Lookup(callCtx, result.Email)
	switch {
	case err == nil:
		result.Breaches = fromLeakCheck(res)
		result.Status = StatusBreached
	case api.IsNotFound(err):
		result.Breaches = []Breach{}
		result.Status = StatusClean
	default:
		logger.Debug().Err(err).Msg("Fallback lookup failed")
		result.Status = StatusUnknown
		result.Err = err
	}
}

// fallbackReason names why HIBP could not answer, or "" when the error is
// not one the fallback can help with.
func fallbackReason(err error) string {
	switch {
	case api.IsMissingAPIKey(err):
		return "no HIBP API key configured"
	case api.IsUnauthorized(err):
		return "HIBP rejected the API key"
	case api.IsRateLimited(err):
		return "HIBP rate limit exceeded"
	default:
		return ""
	}
}

// CheckPassword looks password up with the selected provider. Only a hash
// prefix leaves the machine.
func (n *Notifier) CheckPassword(ctx context.Context, password string, opts PasswordOptions) PasswordResult {
	logger, id := n.logger.WithLookupID()

	provider := opts.Provider
	if provider == "" {
		provider = constants.ProviderPwnedPasswords
	}
	result := PasswordResult{LookupID: id, Provider: provider}

	password, err := validation.ValidatePassword(password)
	if err != nil {
		result.Err = err
		return result
	}

	source, ok := n.passwords[provider]
	if !ok {
		result.Err = fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
		return result
	}

	if opts.Strength {
		s := strength.Evaluate(password, opts.UserInputs)
		result.Strength = &s
	}

	logger.Debug().Str("provider", provider).Msg("Checking password")
	callCtx, cancel := withBudget(ctx, opts.Timeout)
	defer cancel()
	count, err := source.Count(callCtx, password)
	switch {
	case err == nil, api.IsNotFound(err):
		result.Count = count
		result.Status = StatusClean
		if count > 0 {
			result.Status = StatusBreached
		}
	default:
		logger.Debug().Err(err).Msg("Password lookup failed")
		result.Status = StatusUnknown
		result.Err = err
	}
	return result
}

// withBudget bounds one provider call. A zero budget only inherits ctx.
func withBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}
