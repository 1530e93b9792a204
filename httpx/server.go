package httpx

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"dqx0.com/go/httpwire/internal/obs"
)

// ErrServerClosed is returned by Serve after Close.
var ErrServerClosed = errors.New("httpx: server closed")

// Server accepts connections and hands each one to Dispatcher on its own
// goroutine. Every connection carries exactly one request and one response.
type Server struct {
	Addr       string
	Dispatcher *Dispatcher
	// IdleTimeout bounds the wait between reads. Zero means
	// DefaultIdleTimeout; negative disables it.
	IdleTimeout time.Duration
	// ReadHeaderTimeout bounds the whole request head, measured from
	// accept. Zero or negative leaves only the idle timeout.
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration

	Logger *zap.Logger

	mu        sync.Mutex
	listener  net.Listener
	listening atomic.Bool
	conns     sync.WaitGroup
}

// ListenAndServe listens on Addr, or localhost:8080 when empty, and serves.
func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = "localhost:8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts on l until Close is called or Accept fails.
func (s *Server) Serve(l net.Listener) error {
	if s.Dispatcher == nil {
		l.Close()
		return errors.New("httpx: server has no dispatcher")
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.listening.Store(true)
	defer l.Close()

	s.logger().Info("listening", zap.String("addr", l.Addr().String()))
	for {
		c, err := l.Accept()
		if err != nil {
			if !s.listening.Load() {
				return ErrServerClosed
			}
			return err
		}
		s.conns.Add(1)
		go s.serveConn(c)
	}
}

// Close stops accepting and waits for in-flight connections to finish.
func (s *Server) Close() error {
	if !s.listening.Swap(false) {
		return nil
	}
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	err := l.Close()
	s.conns.Wait()
	return err
}

func (s *Server) serveConn(c net.Conn) {
	defer s.conns.Done()
	if s.WriteTimeout > 0 {
		_ = c.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
	s.Dispatcher.HandleConnection(withReadDeadlines(c, s.idleTimeout(), s.ReadHeaderTimeout))
}

func (s *Server) idleTimeout() time.Duration {
	switch {
	case s.IdleTimeout > 0:
		return s.IdleTimeout
	case s.IdleTimeout < 0:
		return 0
	}
	return DefaultIdleTimeout
}

func (s *Server) logger() *zap.Logger { return obs.OrNop(s.Logger) }
