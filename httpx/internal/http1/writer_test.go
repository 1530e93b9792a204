package http1

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRequest_Exact(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRequest(&buf, "GET", "/", "h", Header{{Name: "X", Value: "1"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: h\r\nX: 1\r\n\r\n", buf.String())
}

func TestWriteRequest_AddsContentLength(t *testing.T) {
	var buf bytes.Buffer
	h := Header{{Name: "Content-Type", Value: "application/json"}, {Name: "X-Trace", Value: "a"}}
	require.NoError(t, WriteRequest(&buf, "POST", "/p", "h:8080", h, []byte(`{"a":1}`)))
	want := "POST /p HTTP/1.1\r\nHost: h:8080\r\nContent-Type: application/json\r\nX-Trace: a\r\nContent-Length: 7\r\n\r\n{\"a\":1}"
	assert.Equal(t, want, buf.String())
}

func TestWriteRequest_KeepsCallerContentLength(t *testing.T) {
	var buf bytes.Buffer
	h := Header{{Name: "content-length", Value: "3"}}
	require.NoError(t, WriteRequest(&buf, "PUT", "/", "h", h, []byte("abc")))
	assert.Equal(t, 1, strings.Count(strings.ToLower(buf.String()), "content-length"))
	assert.True(t, strings.HasSuffix(buf.String(), "content-length: 3\r\n\r\nabc"))
}

func TestWriteRequest_ContentLengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRequest(&buf, "PUT", "/", "h", Header{{Name: "Content-Length", Value: "9"}}, []byte("abc"))
	assert.ErrorIs(t, err, ErrContentLengthMismatch)
	assert.Zero(t, buf.Len())
}

func TestWriteRequest_DropsCallerHost(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, "GET", "/", "real", Header{{Name: "host", Value: "fake"}}, nil))
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: real\r\n\r\n", buf.String())
}

func TestWriteRequest_RejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "X\r\nInjected", "Bad Name", "X:"} {
		var buf bytes.Buffer
		err := WriteRequest(&buf, "GET", "/", "h", Header{{Name: name, Value: "v"}}, nil)
		assert.ErrorIs(t, err, ErrInvalidHeaderName, "%q", name)
	}
}

func TestWriteRequest_RejectsBadRequestLine(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteRequest(&buf, "GE T", "/", "h", nil, nil), ErrMalformedRequestLine)
	assert.ErrorIs(t, WriteRequest(&buf, "GET", "/a b", "h", nil, nil), ErrMalformedRequestLine)
}

func TestWriteRequest_ReaderRoundTrip(t *testing.T) {
	bodies := [][]byte{[]byte("x"), []byte("hello, world"), bytes.Repeat([]byte{0xe9, 0x00, '\r', '\n'}, 300)}
	for _, body := range bodies {
		var buf bytes.Buffer
		h := Header{{Name: "Content-Type", Value: "application/octet-stream"}}
		require.NoError(t, WriteRequest(&buf, "POST", "/r", "h", h, body))

		r := newReader(buf.String(), 7)
		head, err := r.ReadRequestHead()
		require.NoError(t, err)
		assert.Equal(t, "h", head.Header.Get("Host"))
		got, err := r.ReadBody(head.Header, false)
		require.NoError(t, err)
		assert.Equal(t, body, got)
	}
}

func TestWriteResponse(t *testing.T) {
	var buf bytes.Buffer
	h := Header{{Name: "Content-Type", Value: "text/plain"}, {Name: "X-Evil", Value: "a\r\nSet-Cookie: b"}}
	require.NoError(t, WriteResponse(&buf, 405, "", h, []byte("no")))
	want := "HTTP/1.1 405 Method Not Allowed\r\nContent-Type: text/plain\r\nX-Evil: aSet-Cookie: b\r\nConnection: close\r\n\r\nno"
	assert.Equal(t, want, buf.String())
}

func TestWriteResponse_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	h := Header{{Name: "Content-Length", Value: "2"}}
	require.NoError(t, WriteResponse(&buf, 201, "", h, []byte("ok")))
	head, body, err := readResp(t, buf.String())
	require.NoError(t, err)
	assert.Equal(t, 201, head.StatusCode)
	assert.Equal(t, "Created", head.Reason)
	assert.Equal(t, "close", head.Header.Get("connection"))
	assert.Equal(t, "ok", string(body))
}
