package httpx

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"dqx0.com/go/httpwire/httpx/internal/http1"
	"dqx0.com/go/httpwire/internal/obs"
)

// Client issues one request per connection and follows redirects. The zero
// value is ready to use.
type Client struct {
	// Dialer opens plain TCP connections. Nil means a net.Dialer with
	// DialTimeout.
	Dialer      *net.Dialer
	DialTimeout time.Duration
	// TLSConfig is used for https. ServerName and ALPN are filled in per
	// request when empty. Nil means system roots.
	TLSConfig *tls.Config
	// IdleTimeout bounds the wait between reads. Zero means
	// DefaultIdleTimeout; negative disables it.
	IdleTimeout time.Duration
	// MaxRedirects caps followed redirects. Zero means DefaultMaxRedirects;
	// negative returns the first response as is.
	MaxRedirects   int
	MaxHeaderBytes int
	MaxBodyBytes   int64

	Logger *zap.Logger
	Meter  obs.Meter
}

// IssueRequest builds a request from its parts and runs it through Do.
func (c *Client) IssueRequest(method, rawURL string, h Header, body []byte) (*Response, error) {
	req, err := NewRequest(method, rawURL, h, body)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do sends req and returns the final response after redirects. Every hop
// uses a fresh connection and a fresh Request carrying req's headers and no
// body. Failures wrap ErrInvalidURL, ErrConnectionFailed,
// ErrMalformedResponse or ErrTooManyRedirects.
func (c *Client) Do(req *Request) (*Response, error) {
	visited := []URLEndpoint{req.URL}
	cur := req
	for {
		res, err := c.roundTrip(cur)
		if err != nil {
			return nil, err
		}
		next, err := NextHop(cur.Method, cur.URL, res)
		if err != nil {
			return nil, err
		}
		if next == nil || c.MaxRedirects < 0 {
			return res, nil
		}
		if len(visited) > c.maxRedirects() {
			c.logger().Warn("redirect limit reached",
				zap.Int("hops", len(visited)-1),
				zap.String("location", next.URL.String()))
			return nil, &RedirectError{Visited: visited}
		}
		c.logger().Debug("following redirect",
			zap.Int("status", res.StatusCode),
			zap.String("method", next.Method.String()),
			zap.String("location", next.URL.String()))
		c.meter().Counter("httpx_client_redirects_total", 1, obs.Label{Key: "status", Value: strconv.Itoa(res.StatusCode)})

		h := req.Header.Clone()
		h.Del("Content-Length")
		cur = &Request{Method: next.Method, URL: next.URL, Header: h}
		visited = append(visited, next.URL)
	}
}

func (c *Client) roundTrip(req *Request) (*Response, error) {
	start := time.Now()
	h := req.Header.Clone()
	if !h.Has("Connection") {
		h.Add("Connection", "close")
	}
	// Serialize before dialing so a bad request never reaches the wire.
	var wire bytes.Buffer
	if err := WriteRequest(&wire, req.Method, req.URL, h, req.Body); err != nil {
		return nil, err
	}

	conn, err := c.dial(req.URL)
	if err != nil {
		c.logger().Warn("dial failed", zap.String("addr", req.URL.Addr()), zap.Error(err))
		c.meter().Counter("httpx_client_requests_error", 1, obs.Label{Key: "stage", Value: "dial"})
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, req.URL.Addr(), err)
	}
	defer conn.Close()
	conn = withIdleTimeout(conn, c.idleTimeout())

	if _, err := conn.Write(wire.Bytes()); err != nil {
		c.meter().Counter("httpx_client_requests_error", 1, obs.Label{Key: "stage", Value: "write"})
		return nil, fmt.Errorf("%w: write: %w", ErrConnectionFailed, err)
	}
	c.meter().Counter("httpx_client_requests_total", 1, obs.Label{Key: "method", Value: req.Method.String()})

	r := &http1.Reader{
		BR:             bufio.NewReader(conn),
		MaxHeaderBytes: c.MaxHeaderBytes,
		MaxBodyBytes:   c.MaxBodyBytes,
	}
	res, err := readResponse(r, req.Method)
	if err != nil {
		c.logger().Warn("read response failed", zap.String("url", req.URL.String()), zap.Error(err))
		c.meter().Counter("httpx_client_requests_error", 1, obs.Label{Key: "stage", Value: "read"})
		return nil, err
	}
	status := strconv.Itoa(res.StatusCode)
	c.meter().Histogram("httpx_client_roundtrip_duration_ms", float64(time.Since(start).Milliseconds()),
		obs.Label{Key: "method", Value: req.Method.String()}, obs.Label{Key: "status", Value: status})
	c.logger().Debug("response",
		zap.String("method", req.Method.String()),
		zap.String("url", req.URL.String()),
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(res.Body)))
	return res, nil
}

func (c *Client) dial(u URLEndpoint) (net.Conn, error) {
	d := c.Dialer
	if d == nil {
		d = &net.Dialer{Timeout: c.dialTimeout()}
	}
	if !u.Secure() {
		return d.Dial("tcp", u.Addr())
	}
	cfg := c.TLSConfig
	if cfg == nil {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg = cfg.Clone()
		cfg.ServerName = u.Hostname()
	}
	if len(cfg.NextProtos) == 0 {
		cfg = cfg.Clone()
		cfg.NextProtos = []string{"http/1.1"}
	}
	td := tls.Dialer{NetDialer: d, Config: cfg}
	return td.Dial("tcp", u.Addr())
}

func (c *Client) dialTimeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return 5 * time.Second
}

func (c *Client) idleTimeout() time.Duration {
	switch {
	case c.IdleTimeout > 0:
		return c.IdleTimeout
	case c.IdleTimeout < 0:
		return 0
	}
	return DefaultIdleTimeout
}

func (c *Client) maxRedirects() int {
	if c.MaxRedirects > 0 {
		return c.MaxRedirects
	}
	return DefaultMaxRedirects
}

func (c *Client) logger() *zap.Logger { return obs.OrNop(c.Logger) }

func (c *Client) meter() obs.Meter { return obs.OrNopMeter(c.Meter) }
