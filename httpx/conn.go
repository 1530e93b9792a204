package httpx

import (
	"errors"
	"net"
	"os"
	"time"
)

// DefaultIdleTimeout is how long a read may wait for the next bytes on
// either side before the data received so far is taken as complete.
const DefaultIdleTimeout = 10 * time.Second

// idleConn pushes the read deadline forward before every Read, turning a
// whole-message deadline into an idle timeout. While headBy is set, no
// deadline is pushed past it.
type idleConn struct {
	net.Conn
	timeout time.Duration
	headBy  time.Time
}

// headDeadliner is implemented by connections that bound the time spent
// reading a request head. headRead lifts that bound once the head is in.
type headDeadliner interface {
	headRead()
}

func withIdleTimeout(c net.Conn, d time.Duration) net.Conn {
	if d <= 0 {
		return c
	}
	return &idleConn{Conn: c, timeout: d}
}

// withReadDeadlines wraps c with an idle timeout and an absolute deadline
// for the request head. Zero values disable either one.
func withReadDeadlines(c net.Conn, idle, head time.Duration) net.Conn {
	if head <= 0 {
		return withIdleTimeout(c, idle)
	}
	return &idleConn{Conn: c, timeout: idle, headBy: time.Now().Add(head)}
}

func (c *idleConn) Read(p []byte) (int, error) {
	var dl time.Time
	if c.timeout > 0 {
		dl = time.Now().Add(c.timeout)
	}
	if !c.headBy.IsZero() && (dl.IsZero() || c.headBy.Before(dl)) {
		dl = c.headBy
	}
	if err := c.Conn.SetReadDeadline(dl); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *idleConn) headRead() { c.headBy = time.Time{} }

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
