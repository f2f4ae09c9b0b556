package http

import (
	"compress/gzip"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// acceptEncoding is advertised on every request. Setting it ourselves turns
// off net/http's transparent gzip handling, so both encodings are decoded here.
const acceptEncoding = "br, gzip"

// decodingTransport negotiates brotli or gzip and hands callers a decoded body.
type decodingTransport struct {
	next nethttp.RoundTripper
}

func (t *decodingTransport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := decodeBody(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// decodeBody replaces resp.Body with a decoding reader according to Content-Encoding.
func decodeBody(resp *nethttp.Response) error {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))

	var reader io.Reader
	switch encoding {
	case "", "identity":
		return nil
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			if err == io.EOF {
				// Empty body, e.g. HEAD.
				return nil
			}
			return fmt.Errorf("failed to open gzip response: %w", err)
		}
		reader = gz
	default:
		return fmt.Errorf("unsupported content encoding %q", encoding)
	}

	resp.Body = &decodedBody{Reader: reader, closer: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// decodedBody closes the underlying network body.
type decodedBody struct {
	io.Reader
	closer io.Closer
}

func (b *decodedBody) Close() error {
	return b.closer.Close()
}
