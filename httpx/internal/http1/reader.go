package http1

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultMaxHeaderBytes bounds a single head or chunk-size line.
	DefaultMaxHeaderBytes = 8 << 10
	// DefaultMaxHeadBytes bounds a whole head: start line, fields and the
	// blank line, plus any blank lines before a request line.
	DefaultMaxHeadBytes = 64 << 10
)

// RequestHead is a parsed request line plus its header block.
type RequestHead struct {
	Method string
	Target string
	Proto  string
	Header Header
}

// ResponseHead is a parsed status line plus its header block.
type ResponseHead struct {
	Proto      string
	StatusCode int
	Reason     string
	Header     Header
}

// Reader parses HTTP/1.1 messages from a buffered stream. Bytes are treated
// as single octets throughout, so anything outside ASCII passes through
// unchanged.
type Reader struct {
	BR             *bufio.Reader
	MaxHeaderBytes int
	MaxHeadBytes   int
	// MaxBodyBytes caps a decoded body; zero means no limit.
	MaxBodyBytes int64
	// Raw, when set, receives a copy of every byte the reader consumes.
	Raw *bytes.Buffer

	consumed int // bytes read by readLine
	headFrom int // consumed at the start of the current head
}

// ReadRequestHead reads a request line and headers. Leading blank lines are
// skipped; a stream with nothing else in it yields ErrEmptyMessage.
func (r *Reader) ReadRequestHead() (*RequestHead, error) {
	r.headFrom = r.consumed
	var parts []string
	for len(parts) == 0 {
		line, err := r.readHeadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrEmptyMessage
			}
			return nil, err
		}
		parts = splitSP(line)
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %d fields", ErrMalformedRequestLine, len(parts))
	}
	if !strings.HasPrefix(parts[2], "HTTP/") {
		return nil, fmt.Errorf("%w: version %q", ErrMalformedRequestLine, parts[2])
	}
	hdr, err := r.readHeaders()
	if err != nil {
		return nil, err
	}
	return &RequestHead{Method: parts[0], Target: parts[1], Proto: parts[2], Header: hdr}, nil
}

// ReadResponseHead reads a status line and headers.
func (r *Reader) ReadResponseHead() (*ResponseHead, error) {
	r.headFrom = r.consumed
	line, err := r.readHeadLine()
	if err != nil {
		return nil, err
	}
	proto, code, reason, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}
	hdr, err := r.readHeaders()
	if err != nil {
		return nil, err
	}
	return &ResponseHead{Proto: proto, StatusCode: code, Reason: reason, Header: hdr}, nil
}

// ReadBody reads the body framed by h: chunked coding first, then
// Content-Length. Without either, untilClose reads to end of stream and
// otherwise the body is empty. A read timeout ends the body with whatever
// had arrived.
func (r *Reader) ReadBody(h Header, untilClose bool) ([]byte, error) {
	if isChunked(h) {
		return NewChunkedDecoder(r).Decode()
	}
	if v, ok := h.Lookup("Content-Length"); ok {
		n, err := ParseContentLength(v)
		if err != nil {
			return nil, err
		}
		return r.readN(n)
	}
	if untilClose {
		return r.readAll()
	}
	return nil, nil
}

// ParseContentLength parses a non-negative decimal Content-Length value.
func ParseContentLength(v string) (int64, error) {
	n, err := strconv.ParseInt(strings.Trim(v, " \t"), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidContentLength, v)
	}
	return n, nil
}

func parseStatusLine(line string) (proto string, code int, reason string, err error) {
	parts := splitSP(line)
	if len(parts) < 2 {
		return "", 0, "", fmt.Errorf("%w: %q", ErrMalformedStatusLine, line)
	}
	proto = parts[0]
	if !strings.HasPrefix(proto, "HTTP/") {
		return "", 0, "", fmt.Errorf("%w: version %q", ErrMalformedStatusLine, proto)
	}
	code, err = strconv.Atoi(parts[1])
	if err != nil || code < 100 || code > 599 {
		return "", 0, "", fmt.Errorf("%w: status %q", ErrMalformedStatusLine, parts[1])
	}
	// The reason phrase is everything after the code, inner spacing kept.
	rest := strings.TrimLeft(line, " \t")[len(proto):]
	rest = strings.TrimLeft(rest, " \t")[len(parts[1]):]
	return proto, code, strings.Trim(rest, " \t"), nil
}

func (r *Reader) readHeaders() (Header, error) {
	var h Header
	for {
		line, err := r.readHeadLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			return h, nil
		}
		if strings.IndexByte(line, '\r') >= 0 {
			return nil, fmt.Errorf("%w: stray CR", ErrMalformedHeader)
		}
		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		if !ValidHeaderName(name) {
			return nil, headerNameError(name)
		}
		h.Add(name, strings.Trim(value, " \t"))
	}
}

// readHeadLine is readLine charged against the MaxHeadBytes budget of the
// head being read.
func (r *Reader) readHeadLine() (string, error) {
	line, err := r.readLine()
	if err != nil {
		return "", err
	}
	limit := r.MaxHeadBytes
	if limit <= 0 {
		limit = DefaultMaxHeadBytes
	}
	if r.consumed-r.headFrom > limit {
		return "", fmt.Errorf("%w: head exceeds %d bytes", ErrHeaderTooLarge, limit)
	}
	return line, nil
}

// readLine returns one line without its terminator. LF alone is accepted as
// a terminator. io.EOF means the stream ended cleanly before the line began.
func (r *Reader) readLine() (string, error) {
	limit := r.MaxHeaderBytes
	if limit <= 0 {
		limit = DefaultMaxHeaderBytes
	}
	var sb strings.Builder
	for {
		b, err := r.BR.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		r.consumed++
		if r.Raw != nil {
			r.Raw.WriteByte(b)
		}
		if b == '\n' {
			break
		}
		sb.WriteByte(b)
		if sb.Len() > limit {
			return "", ErrHeaderTooLarge
		}
	}
	return strings.TrimSuffix(sb.String(), "\r"), nil
}

func (r *Reader) readN(n int64) ([]byte, error) {
	if r.MaxBodyBytes > 0 && n > r.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %d bytes declared", ErrBodyTooLarge, n)
	}
	var buf bytes.Buffer
	got, err := r.copyN(&buf, n)
	if err != nil {
		if isTimeout(err) {
			return buf.Bytes(), nil
		}
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedBody, got, n)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Reader) readAll() ([]byte, error) {
	var buf bytes.Buffer
	var w io.Writer = &buf
	if r.Raw != nil {
		w = io.MultiWriter(&buf, r.Raw)
	}
	var src io.Reader = r.BR
	if r.MaxBodyBytes > 0 {
		src = io.LimitReader(r.BR, r.MaxBodyBytes+1)
	}
	_, err := io.Copy(w, src)
	if err != nil && !isTimeout(err) {
		return nil, err
	}
	if r.MaxBodyBytes > 0 && int64(buf.Len()) > r.MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return buf.Bytes(), nil
}

func (r *Reader) copyN(dst *bytes.Buffer, n int64) (int64, error) {
	var w io.Writer = dst
	if r.Raw != nil {
		w = io.MultiWriter(dst, r.Raw)
	}
	return io.CopyN(w, r.BR, n)
}

// splitSP splits on runs of SP and HTAB only, so Latin-1 bytes that happen
// to form Unicode spaces in UTF-8 are not treated as separators.
func splitSP(s string) []string {
	return strings.FieldsFunc(s, func(c rune) bool { return c == ' ' || c == '\t' })
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
