package http1

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage          = errors.New("http1: empty message")
	ErrMalformedStatusLine   = errors.New("http1: malformed status line")
	ErrMalformedRequestLine  = errors.New("http1: malformed request line")
	ErrMalformedHeader       = errors.New("http1: malformed header line")
	ErrInvalidHeaderName     = errors.New("http1: invalid header name")
	ErrHeaderTooLarge        = errors.New("http1: header too large")
	ErrMalformedChunkSize    = errors.New("http1: malformed chunk size")
	ErrTruncatedChunk        = errors.New("http1: truncated chunk")
	ErrInvalidContentLength  = errors.New("http1: invalid Content-Length")
	ErrTruncatedBody         = errors.New("http1: body shorter than Content-Length")
	ErrBodyTooLarge          = errors.New("http1: body too large")
	ErrContentLengthMismatch = errors.New("http1: Content-Length does not match body")
)

func headerNameError(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidHeaderName, name)
}
