package httpx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/encoding/charmap"

	"dqx0.com/go/httpwire/httpx/internal/http1"
)

// Response is a fully read response. Body holds the decoded bytes
// whatever the transfer framing was.
type Response struct {
	Proto      string
	StatusCode int
	Reason     string
	Header     Header
	Body       []byte
}

// Status is the code and reason, as in "404 Not Found".
func (r *Response) Status() string {
	if r.Reason == "" {
		return strconv.Itoa(r.StatusCode)
	}
	return strconv.Itoa(r.StatusCode) + " " + r.Reason
}

// Text decodes Body as ISO-8859-1. Every byte maps to one rune, so the
// result is lossless whatever the payload.
func (r *Response) Text() string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(r.Body)
	if err != nil {
		return string(r.Body)
	}
	return string(s)
}

// ReadResponse reads one response from br. method is the method of the
// request being answered; a HEAD response never has a body.
func ReadResponse(br *bufio.Reader, method Method) (*Response, error) {
	return readResponse(&http1.Reader{BR: br}, method)
}

func readResponse(r *http1.Reader, method Method) (*Response, error) {
	head, err := r.ReadResponseHead()
	for n := 0; err == nil && interim(head.StatusCode); n++ {
		if n == maxInterimResponses {
			return nil, fmt.Errorf("%w: more than %d interim responses", ErrMalformedResponse, maxInterimResponses)
		}
		head, err = r.ReadResponseHead()
	}
	if err != nil {
		return nil, responseError(err)
	}
	res := &Response{
		Proto:      head.Proto,
		StatusCode: head.StatusCode,
		Reason:     head.Reason,
		Header:     head.Header,
	}
	if noResponseBody(head.StatusCode, method) {
		return res, nil
	}
	if res.Body, err = r.ReadBody(head.Header, true); err != nil {
		return nil, responseError(err)
	}
	return res, nil
}

const maxInterimResponses = 10

// interim reports whether status is a 1xx head that a final response
// follows. 101 ends the exchange and is returned as is.
func interim(status int) bool {
	return status >= 100 && status < 200 && status != 101
}

func responseError(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
}

func noResponseBody(status int, method Method) bool {
	if method == MethodHead {
		return true
	}
	if status >= 100 && status < 200 {
		return true
	}
	return status == 204 || status == 304
}
