package http1

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ChunkedDecoder turns a Transfer-Encoding: chunked body into flat bytes.
// A decoder is used for one body and is done after the zero-size chunk.
type ChunkedDecoder struct {
	r          *Reader
	body       bytes.Buffer
	terminated bool
}

// NewChunkedDecoder returns a decoder reading through r.
func NewChunkedDecoder(r *Reader) *ChunkedDecoder {
	return &ChunkedDecoder{r: r}
}

// DecodeChunked decodes one chunked body from br.
func DecodeChunked(br *bufio.Reader) ([]byte, error) {
	return NewChunkedDecoder(&Reader{BR: br}).Decode()
}

// Decode consumes chunks up to and including the terminating zero-size
// chunk and its trailer section, which is discarded. A read timeout stops
// decoding and returns what was accumulated.
func (d *ChunkedDecoder) Decode() ([]byte, error) {
	for !d.terminated {
		if err := d.next(); err != nil {
			if isTimeout(err) {
				return d.body.Bytes(), nil
			}
			return nil, err
		}
	}
	return d.body.Bytes(), nil
}

// Terminated reports whether the zero-size chunk has been seen.
func (d *ChunkedDecoder) Terminated() bool { return d.terminated }

func (d *ChunkedDecoder) next() error {
	size, err := d.readChunkSize()
	if err != nil {
		return err
	}
	if size == 0 {
		d.terminated = true
		return d.discardTrailers()
	}
	if limit := d.r.MaxBodyBytes; limit > 0 && int64(d.body.Len())+size > limit {
		return fmt.Errorf("%w: chunk of %d bytes", ErrBodyTooLarge, size)
	}
	n, err := d.r.copyN(&d.body, size)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %d of %d bytes", ErrTruncatedChunk, n, size)
		}
		return err
	}
	line, err := d.r.readLine()
	if err != nil {
		return truncated(err)
	}
	if line != "" {
		return fmt.Errorf("%w: missing CRLF after chunk data", ErrMalformedChunkSize)
	}
	return nil
}

func (d *ChunkedDecoder) readChunkSize() (int64, error) {
	line, err := d.r.readLine()
	if err != nil {
		return 0, truncated(err)
	}
	// Chunk extensions are ignored.
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.Trim(line, " \t")
	if line == "" {
		return 0, fmt.Errorf("%w: empty", ErrMalformedChunkSize)
	}
	if !isHex(line) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedChunkSize, line)
	}
	n, err := strconv.ParseInt(line, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedChunkSize, line)
	}
	return n, nil
}

func (d *ChunkedDecoder) discardTrailers() error {
	for {
		line, err := d.r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		if line == "" {
			return nil
		}
	}
}

// isHex reports whether s is a non-empty run of hex digits. ParseInt alone
// would also take a leading sign.
func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return s != ""
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncatedChunk, err)
	}
	return err
}
