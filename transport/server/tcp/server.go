// Package tcp implements the raw-TCP server transport from spec §4.3: a
// listener spawning one worker goroutine per accepted connection, framing
// messages with a 4-byte big-endian length prefix and enforcing an
// idle-timeout and a maximum message size per connection.
package tcp

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/server/base"
)

const lengthPrefixSize = 4

// Server accepts TCP connections and dispatches one session per connection.
type Server struct {
	addr       string
	listener   net.Listener
	base       *base.Handler
	newHandler transport.NewHandler
	options    []base.Option

	maxMessageSize int
	idleTimeout    time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithMaxMessageSize bounds the accepted frame payload size; 0 means unbounded.
func WithMaxMessageSize(n int) Option { return func(s *Server) { s.maxMessageSize = n } }

// WithIdleTimeout closes a connection once it has been idle this long; 0 disables it.
func WithIdleTimeout(d time.Duration) Option { return func(s *Server) { s.idleTimeout = d } }

// WithSessionOptions passes through base.Option values applied to every session.
func WithSessionOptions(opts ...base.Option) Option {
	return func(s *Server) { s.options = append(s.options, opts...) }
}

// New creates a Server bound to addr (not yet listening; call ListenAndServe).
func New(addr string, newHandler transport.NewHandler, opts ...Option) *Server {
	s := &Server{
		addr:       addr,
		base:       base.NewHandler(),
		newHandler: newHandler,
		options:    []base.Option{base.WithFramer(FrameMessage)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds addr and accepts connections until ctx is cancelled
// or Close is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("tcp: listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go s.serveConn(ctx, conn)
	}
}

// Close stops accepting new connections and waits for in-flight workers to exit.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	s.wg.Wait()
	return nil
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	sessionID := conn.RemoteAddr().String()
	aSession := base.NewSession(ctx, sessionID, conn, s.newHandler, s.options...)
	s.base.Sessions.Put(sessionID, aSession)
	defer s.base.Sessions.Delete(sessionID)

	for {
		if s.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
		payload, err := readFrame(conn, s.maxMessageSize)
		if err != nil {
			if err != io.EOF {
				aSession.SetError(err)
			}
			return
		}
		s.base.HandleMessage(ctx, aSession, payload, nil)
	}
}

// ReadFrame reads one 4-byte-length-prefixed message from r; maxSize of 0
// means unbounded. Exported so transport/client/tcp can share the same
// framing logic instead of reimplementing it.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	return readFrame(r, maxSize)
}

// readFrame reads one 4-byte-length-prefixed message. maxSize of 0 means unbounded.
func readFrame(r io.Reader, maxSize int) ([]byte, error) {
	var lenBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return nil, fmt.Errorf("tcp: frame length 0 is not a valid message, closing connection")
	}
	if maxSize > 0 && int(length) > maxSize {
		return nil, fmt.Errorf("tcp: frame length %d exceeds max message size %d", length, maxSize)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FrameMessage prefixes data with its 4-byte big-endian length, grouping
// prefix and body into one buffer so the session's single Writer.Write call
// behaves like a vectored send.
func FrameMessage(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(lengthPrefixSize + len(data))
	var lenBuf [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
	return buf.Bytes()
}
