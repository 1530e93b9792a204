package http1

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteRequest writes a request head and body. host becomes the first
// header field; Host fields in h are skipped so the message carries exactly
// one. A Content-Length is added for a non-empty body unless h has one, in
// which case it must match len(body). Values are written as given.
func WriteRequest(w io.Writer, method, target, host string, h Header, body []byte) error {
	if !ValidHeaderName(method) {
		return fmt.Errorf("%w: method %q", ErrMalformedRequestLine, method)
	}
	if target == "" || strings.ContainsAny(target, " \t\r\n") {
		return fmt.Errorf("%w: target %q", ErrMalformedRequestLine, target)
	}
	if err := h.Validate(); err != nil {
		return err
	}
	if v, ok := h.Lookup("Content-Length"); ok {
		n, err := ParseContentLength(v)
		if err != nil {
			return err
		}
		if n != int64(len(body)) {
			return fmt.Errorf("%w: header says %d, body has %d", ErrContentLengthMismatch, n, len(body))
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %s HTTP/1.1\r\n", method, target)
	fmt.Fprintf(bw, "Host: %s\r\n", host)
	for _, f := range h {
		if strings.EqualFold(f.Name, "Host") {
			continue
		}
		fmt.Fprintf(bw, "%s: %s\r\n", f.Name, f.Value)
	}
	if len(body) > 0 && !h.Has("Content-Length") {
		fmt.Fprintf(bw, "Content-Length: %d\r\n", len(body))
	}
	bw.WriteString("\r\n")
	bw.Write(body)
	return bw.Flush()
}

// WriteResponse writes a complete response. Header order is kept and
// Connection: close is appended unless hdr already names a Connection.
func WriteResponse(w io.Writer, status int, reason string, hdr Header, body []byte) error {
	if reason == "" {
		reason = ReasonPhrase(status)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason)
	for _, f := range hdr {
		if !ValidHeaderName(f.Name) {
			return headerNameError(f.Name)
		}
		fmt.Fprintf(bw, "%s: %s\r\n", f.Name, sanitizeHeaderValue(f.Value))
	}
	if !hdr.Has("Connection") {
		bw.WriteString("Connection: close\r\n")
	}
	bw.WriteString("\r\n")
	bw.Write(body)
	return bw.Flush()
}

// ReasonPhrase returns the standard reason phrase for code, or "".
func ReasonPhrase(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 300:
		return "Multiple Choices"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 303:
		return "See Other"
	case 304:
		return "Not Modified"
	case 305:
		return "Use Proxy"
	case 307:
		return "Temporary Redirect"
	case 308:
		return "Permanent Redirect"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 408:
		return "Request Timeout"
	case 413:
		return "Content Too Large"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	default:
		return ""
	}
}

func sanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	// Remove CR/LF and other control chars except HTAB
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
