package httpx

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dqx0.com/go/httpwire/httpx/internal/http1"
)

func TestWriteRequest_Exact(t *testing.T) {
	var buf bytes.Buffer
	u := URLEndpoint{Scheme: "http", Host: "h", Port: 80, Path: "/"}
	err := WriteRequest(&buf, MethodGet, u, Header{{Name: "X", Value: "1"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: h\r\nX: 1\r\n\r\n", buf.String())
}

func TestRequest_Write(t *testing.T) {
	req, err := NewRequest("POST", "http://example.com:8080/submit?x=1", Header{{Name: "Content-Type", Value: "text/plain"}}, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "/submit?x=1", req.Target())

	var buf bytes.Buffer
	require.NoError(t, req.Write(&buf))
	assert.Equal(t, "POST /submit?x=1 HTTP/1.1\r\n"+
		"Host: example.com:8080\r\n"+
		"Content-Type: text/plain\r\n"+
		"Content-Length: 5\r\n"+
		"\r\n"+
		"hello", buf.String())
}

func TestNewRequest_Errors(t *testing.T) {
	_, err := NewRequest("PATCH", "http://example.com/", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)
	_, err = NewRequest("GET", "http://", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidURL)
	_, err = NewRequest("GET", "http://example.com/a b", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.NotErrorIs(t, err, http1.ErrMalformedRequestLine)

	var buf bytes.Buffer
	err = WriteRequest(&buf, Method(0), URLEndpoint{Host: "h", Path: "/"}, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)
	assert.Zero(t, buf.Len())
}

func TestNewRequest_CopiesHeader(t *testing.T) {
	h := Header{{Name: "X", Value: "1"}}
	req, err := NewRequest("GET", "example.com", h, nil)
	require.NoError(t, err)
	h[0].Value = "changed"
	assert.Equal(t, "1", req.Header.Get("X"))
}

func TestReadResponse(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"X-Dup: a\r\n" +
		"x-dup: b\r\n" +
		"\r\n" +
		"4\r\nWiki\r\n6\r\npedia \r\nE\r\nin \r\n\r\nchunks.\r\n0\r\n\r\n"
	res, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)), MethodGet)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1", res.Proto)
	assert.Equal(t, "200 OK", res.Status())
	assert.Equal(t, []string{"a", "b"}, res.Header.Values("X-DUP"))
	assert.Equal(t, "Wikipedia in \r\n\r\nchunks.", string(res.Body))
}

func TestReadResponse_NoBody(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\n"
	res, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)), MethodHead)
	require.NoError(t, err)
	assert.Empty(t, res.Body)
	assert.Equal(t, "5", res.Header.Get("Content-Length"))

	raw = "HTTP/1.1 204 No Content\r\n\r\n"
	res, err = ReadResponse(bufio.NewReader(strings.NewReader(raw)), MethodDelete)
	require.NoError(t, err)
	assert.Empty(t, res.Body)
}

func TestReadResponse_SkipsInterim(t *testing.T) {
	raw := "HTTP/1.1 100 Continue\r\n\r\n" +
		"HTTP/1.1 103 Early Hints\r\nLink: </style.css>; rel=preload\r\n\r\n" +
		"HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
	res, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)), MethodGet)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "ok", string(res.Body))
	assert.Empty(t, res.Header.Get("Link"))

	raw = "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\n\r\nframes"
	res, err = ReadResponse(bufio.NewReader(strings.NewReader(raw)), MethodGet)
	require.NoError(t, err)
	assert.Equal(t, 101, res.StatusCode)
	assert.Empty(t, res.Body)

	raw = strings.Repeat("HTTP/1.1 100 Continue\r\n\r\n", 20)
	_, err = ReadResponse(bufio.NewReader(strings.NewReader(raw)), MethodGet)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	raw = "HTTP/1.1 100 Continue\r\n\r\n"
	_, err = ReadResponse(bufio.NewReader(strings.NewReader(raw)), MethodGet)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestReadResponse_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"garbage\r\n\r\n",
		"HTTP/1.1 200 OK\r\nBroken\r\n\r\n",
		"HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nshort",
		"HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nzz\r\n",
	} {
		_, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)), MethodGet)
		assert.ErrorIs(t, err, ErrMalformedResponse, "%q", raw)
	}
}

func TestResponse_Text(t *testing.T) {
	res := &Response{Body: []byte{'c', 'a', 'f', 0xe9, 0xff}}
	assert.Equal(t, "caféÿ", res.Text())

	res = &Response{StatusCode: 299}
	assert.Equal(t, "299", res.Status())
}
