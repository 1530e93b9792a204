package httpx

import (
	"fmt"
	"io"

	"dqx0.com/go/httpwire/httpx/internal/http1"
)

// Request is one outbound request attempt. Redirects build a new Request
// rather than changing an existing one.
type Request struct {
	Method Method
	URL    URLEndpoint
	Header Header
	Body   []byte
}

// NewRequest validates method and rawURL and builds a Request. The header
// slice is copied.
func NewRequest(method, rawURL string, h Header, body []byte) (*Request, error) {
	m, ok := ParseMethod(method)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &Request{Method: m, URL: u, Header: h.Clone(), Body: body}, nil
}

// Target is the request-target written on the request line.
func (r *Request) Target() string { return r.URL.Path }

// Write serializes r to w; see WriteRequest.
func (r *Request) Write(w io.Writer) error {
	return WriteRequest(w, r.Method, r.URL, r.Header, r.Body)
}

// WriteRequest writes the exact wire form of a request: the request line,
// a Host field derived from u, the caller's fields in order, a computed
// Content-Length when body is non-empty and h has none, a blank line and the
// body. Header names are checked; values are not.
func WriteRequest(w io.Writer, method Method, u URLEndpoint, h Header, body []byte) error {
	if !method.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMethod, method)
	}
	return http1.WriteRequest(w, method.String(), u.Path, u.HostHeader(), h, body)
}
