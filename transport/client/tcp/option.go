package tcp

import (
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
)

// Option configures a Client at construction time.
type Option func(c *Client)

// WithDialTimeout bounds the initial connect (and each reconnect) attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// WithMaxMessageSize bounds the accepted frame payload size; 0 means unbounded.
func WithMaxMessageSize(n int) Option {
	return func(c *Client) { c.maxMessageSize = n }
}

// WithReconnect enables and tunes automatic reconnection.
func WithReconnect(cfg ReconnectConfig) Option {
	return func(c *Client) { c.reconnect = cfg }
}

// WithOnStateChange registers a callback invoked on every state transition.
func WithOnStateChange(fn StateChangeFunc) Option {
	return func(c *Client) { c.onStateChange = fn }
}

// WithRunTimeout sets how long Send waits for a matching response.
func WithRunTimeout(d time.Duration) Option {
	return func(c *Client) { c.base.RunTimeout = d }
}

// WithHandler sets the handler invoked for server-initiated requests.
func WithHandler(handler transport.Handler) Option {
	return func(c *Client) { c.base.Handler = handler }
}

// WithListener registers a listener observing every inbound/outbound message.
func WithListener(listener jsonrpc.Listener) Option {
	return func(c *Client) { c.base.Listener = listener }
}

// WithTrips overrides the default round-trip tracker (and its capacity).
func WithTrips(trips *transport.RoundTrips) Option {
	return func(c *Client) { c.base.RoundTrips = trips }
}
