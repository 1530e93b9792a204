package httpx

import (
	"errors"
	"fmt"
	"strings"

	"dqx0.com/go/httpwire/httpx/internal/http1"
)

// Client-facing failures. Wire faults are reported as ErrMalformedResponse
// wrapping one of the more specific errors below, so errors.Is matches both.
var (
	ErrInvalidURL        = errors.New("httpx: invalid URL")
	ErrConnectionFailed  = errors.New("httpx: connection failed")
	ErrMalformedResponse = errors.New("httpx: malformed response")
	ErrTooManyRedirects  = errors.New("httpx: too many redirects")
	ErrUnknownMethod     = errors.New("httpx: unknown method")
)

// Wire-level errors from the message reader and writer.
var (
	ErrMalformedStatusLine   = http1.ErrMalformedStatusLine
	ErrMalformedHeader       = http1.ErrMalformedHeader
	ErrInvalidHeaderName     = http1.ErrInvalidHeaderName
	ErrHeaderTooLarge        = http1.ErrHeaderTooLarge
	ErrMalformedChunkSize    = http1.ErrMalformedChunkSize
	ErrTruncatedChunk        = http1.ErrTruncatedChunk
	ErrTruncatedBody         = http1.ErrTruncatedBody
	ErrBodyTooLarge          = http1.ErrBodyTooLarge
	ErrContentLengthMismatch = http1.ErrContentLengthMismatch
)

// RedirectError reports a redirect chain that exceeded the hop limit.
type RedirectError struct {
	Visited []URLEndpoint
}

func (e *RedirectError) Error() string {
	locs := make([]string, len(e.Visited))
	for i, u := range e.Visited {
		locs[i] = u.String()
	}
	return fmt.Sprintf("%v after %d hops: %s", ErrTooManyRedirects, len(e.Visited)-1, strings.Join(locs, " -> "))
}

func (e *RedirectError) Unwrap() error { return ErrTooManyRedirects }
