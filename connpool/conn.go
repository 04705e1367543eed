// Package connpool implements the outbound connection pool described in
// spec §4.8: a bounded set of WebSocket/TCP connections with idle-timeout
// and unhealthy-connection eviction, health-checked on a ticker.
package connpool

import (
	"context"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// State is a PooledConnection's lifecycle state.
type State int

const (
	Idle State = iota
	InUse
	Invalid
)

// Conn abstracts the underlying wire connection so the pool can manage
// either a raw TCP conn or a WebSocket conn uniformly.
type Conn interface {
	Close() error
	Healthy() bool
}

type tcpConn struct{ net.Conn }

func (c *tcpConn) Healthy() bool { return c.Conn != nil }

type wsConn struct{ *websocket.Conn }

func (c *wsConn) Healthy() bool { return c.Conn != nil }

// Dialer creates a new underlying Conn; supplied by the caller so the pool
// stays transport-agnostic (dial a TCP address, or a WebSocket URL).
type Dialer func(ctx context.Context) (Conn, error)

// DialTCP returns a Dialer that opens a plain TCP connection to addr.
func DialTCP(addr string) Dialer {
	return func(ctx context.Context) (Conn, error) {
		d := net.Dialer{}
		c, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return &tcpConn{c}, nil
	}
}

// DialWebSocket returns a Dialer that opens a WebSocket connection to url.
func DialWebSocket(url string) Dialer {
	return func(ctx context.Context) (Conn, error) {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return &wsConn{c}, nil
	}
}

// pooledConn is the PooledConnection record from spec §3.
type pooledConn struct {
	conn       Conn
	state      State
	lastUsedAt time.Time
	listIdx    int // index into the idle list when state == Idle, -1 otherwise
}
