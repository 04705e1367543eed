package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	servertcp "github.com/viant/jsonrpc/transport/server/tcp"
)

// Transport sends data over a net.Conn swapped in on (re)connect. It
// implements transport/client/base.Transport.
type Transport struct {
	mu   sync.Mutex
	conn net.Conn
}

func (t *Transport) setConn(conn net.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
}

func (t *Transport) currentConn() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

// SendData writes one length-prefixed frame, repeating Write until every
// byte has been sent.
func (t *Transport) SendData(_ context.Context, data []byte) error {
	conn := t.currentConn()
	if conn == nil {
		return fmt.Errorf("tcp: not connected")
	}
	frame := servertcp.FrameMessage(data)
	return sendExact(conn, frame)
}

// sendExact loops until every byte is written, tolerating partial writes.
func sendExact(conn net.Conn, data []byte) error {
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
