// Package tcp implements the client half of the raw-TCP transport: a
// synchronous send/receive API over a connection that can be configured to
// reconnect with exponential backoff when it drops.
package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/client/base"
	servertcp "github.com/viant/jsonrpc/transport/server/tcp"
)

// Client is a synchronous JSON-RPC client over a length-framed TCP
// connection, with optional automatic reconnection.
type Client struct {
	addr           string
	dialTimeout    time.Duration
	maxMessageSize int
	reconnect      ReconnectConfig
	onStateChange  StateChangeFunc

	base      *base.Client
	transport *Transport

	stateMu sync.Mutex
	state   State

	closeMu sync.Mutex
	closed  bool
	conn    net.Conn

	readDone chan struct{}
}

// New dials addr and, once connected, starts the background read loop.
func New(addr string, options ...Option) (*Client, error) {
	c := &Client{
		addr:        addr,
		dialTimeout: 10 * time.Second,
		reconnect:   defaultReconnectConfig(),
		transport:   &Transport{},
		base: &base.Client{
			RoundTrips: transport.NewRoundTrips(20),
			RunTimeout: 30 * time.Second,
			Handler:    &base.Handler{},
			Logger:     jsonrpc.DefaultLogger,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	c.base.Transport = c.transport

	ctx, cancel := context.WithTimeout(context.Background(), c.dialTimeout)
	defer cancel()
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) setState(s State) {
	c.stateMu.Lock()
	prev := c.state
	c.state = s
	c.stateMu.Unlock()
	if prev != s && c.onStateChange != nil {
		c.onStateChange(prev, s)
	}
}

// State reports the client's current connection state.
func (c *Client) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// connect performs one non-blocking-with-timeout dial attempt and, on
// success, starts the read loop. Caller decides what to do on failure.
func (c *Client) connect(ctx context.Context) error {
	c.setState(Connecting)
	dialer := &net.Dialer{}
	deadline, ok := ctx.Deadline()
	if ok {
		dialer.Deadline = deadline
	}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.setState(Disconnected)
		return fmt.Errorf("tcp: dial %s: %w", c.addr, err)
	}
	c.closeMu.Lock()
	c.conn = conn
	c.closeMu.Unlock()
	c.transport.setConn(conn)
	c.base.SetError(nil)
	c.setState(Connected)

	c.readDone = make(chan struct{})
	go c.readLoop(conn, c.readDone)
	return nil
}

// readLoop reads frames until the connection errors, then either triggers
// reconnection or marks the client Disconnected/Failed.
func (c *Client) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)
	ctx := context.Background()
	for {
		payload, err := servertcp.ReadFrame(conn, c.maxMessageSize)
		if err != nil {
			c.handleDisconnect(err)
			return
		}
		c.base.HandleMessage(ctx, payload)
	}
}

// handleDisconnect reacts to a read error: closes the stale connection and,
// if reconnection is enabled, kicks off the backoff loop; otherwise the
// client records the error so later sends fail, and stays down. Round trips
// already waiting are not completed here; they end at their RunTimeout.
func (c *Client) handleDisconnect(err error) {
	c.closeMu.Lock()
	intentional := c.closed
	c.closeMu.Unlock()
	if intentional {
		c.setState(Disconnected)
		return
	}
	_ = conn(c).Close()

	if !c.reconnect.Enable {
		c.base.SetError(fmt.Errorf("tcp: connection lost: %w", err))
		c.setState(Disconnected)
		return
	}
	go c.reconnectLoop()
}

func conn(c *Client) net.Conn {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.conn
}

// reconnectLoop retries with exponential backoff and jitter until a
// connection succeeds, MaxAttempts is exhausted (Failed), or the client is
// closed.
func (c *Client) reconnectLoop() {
	c.setState(Reconnecting)
	attempt := 0
	for {
		c.closeMu.Lock()
		closed := c.closed
		c.closeMu.Unlock()
		if closed {
			c.setState(Disconnected)
			return
		}
		attempt++
		if c.reconnect.MaxAttempts > 0 && attempt > c.reconnect.MaxAttempts {
			c.base.SetError(fmt.Errorf("tcp: giving up reconnecting to %s after %d attempts", c.addr, attempt-1))
			c.setState(Failed)
			return
		}
		time.Sleep(c.reconnect.nextDelay(attempt))

		ctx, cancel := context.WithTimeout(context.Background(), c.dialTimeout)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			return
		}
	}
}

// Notify sends a fire-and-forget JSON-RPC notification.
func (c *Client) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	return c.base.Notify(ctx, notification)
}

// Send issues a JSON-RPC request and blocks until the matching response
// arrives or RunTimeout elapses.
func (c *Client) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	return c.base.Send(ctx, request)
}

// Close marks the client as intentionally closed and tears down the
// connection; the read loop's resulting error is treated as expected.
func (c *Client) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.closeMu.Unlock()
	c.setState(Disconnected)
	if conn != nil {
		return conn.Close()
	}
	return nil
}
