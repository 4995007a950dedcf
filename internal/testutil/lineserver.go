package testutil

import (
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"
)

// LineServer is a scripted TCP peer. For every request of len(command) bytes
// it writes the next scripted reply verbatim. Once the script is exhausted it
// either shuts down its sending side or keeps the connection open and silent.
type LineServer struct {
	t          *testing.T
	ln         net.Listener
	command    string
	replies    []string
	closeAfter bool

	mu       sync.Mutex
	requests []string
	conns    []net.Conn
	closed   bool
	accepted chan struct{}
	wg       sync.WaitGroup
}

// LineServerOption configures a LineServer.
type LineServerOption func(*LineServer)

// WithReplies sets the raw payloads written in answer to successive requests.
// Each payload should carry its own terminator when one is wanted.
func WithReplies(replies ...string) LineServerOption {
	return func(s *LineServer) {
		s.replies = append(s.replies, replies...)
	}
}

// WithCloseAfterReplies ends the server's side of the stream once the script
// is exhausted instead of leaving it open and silent.
func WithCloseAfterReplies() LineServerOption {
	return func(s *LineServer) {
		s.closeAfter = true
	}
}

// NewLineServer starts a server on a random loopback port. It is shut down
// automatically when the test finishes.
func NewLineServer(t *testing.T, command string, opts ...LineServerOption) *LineServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &LineServer{
		t:        t,
		ln:       ln,
		command:  command,
		accepted: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)

	return s
}

// Host returns the listening IP address.
func (s *LineServer) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port.
func (s *LineServer) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Addr returns host:port.
func (s *LineServer) Addr() string {
	return net.JoinHostPort(s.Host(), strconv.Itoa(s.Port()))
}

// Requests returns a copy of every request received so far.
func (s *LineServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// WaitAccepted blocks until a client has connected or the timeout elapses.
func (s *LineServer) WaitAccepted(timeout time.Duration) bool {
	select {
	case <-s.accepted:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close stops the listener and closes any open connections.
func (s *LineServer) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	s.closed = true
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *LineServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		select {
		case s.accepted <- struct{}{}:
		default:
		}

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *LineServer) serve(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	buf := make([]byte, len(s.command))
	for i := 0; ; i++ {
		if i >= len(s.replies) {
			if s.closeAfter {
				// Half-close so the client sees EOF rather than a reset when it
				// keeps writing.
				if tc, ok := conn.(*net.TCPConn); ok {
					_ = tc.CloseWrite()
				}
			}
			// Swallow further requests until the client or test goes away.
			_, _ = io.Copy(io.Discard, conn)
			return
		}

		if _, err := io.ReadFull(conn, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.t.Logf("line server read: %v", err)
			}
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, string(buf))
		s.mu.Unlock()

		if _, err := conn.Write([]byte(s.replies[i])); err != nil {
			return
		}
	}
}

// RefusedAddr returns a loopback host and port with nothing listening on it.
func RefusedAddr(t *testing.T) (string, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	if err := ln.Close(); err != nil {
		t.Fatalf("failed to close listener: %v", err)
	}
	return addr.IP.String(), addr.Port
}
