package tcp

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/viant/jsonrpc"
	servertcp "github.com/viant/jsonrpc/transport/server/tcp"
)

// echoPingServer accepts a single connection and replies to every "ping"
// request with a canned pong result, framing replies the same way the
// client expects to read them.
func echoPingServer(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			payload, err := servertcp.ReadFrame(conn, 0)
			if err != nil {
				return
			}
			var req jsonrpc.Request
			if err := json.Unmarshal(payload, &req); err != nil {
				continue
			}
			resp := jsonrpc.Response{Id: req.Id, Jsonrpc: jsonrpc.Version}
			resp.Result, _ = json.Marshal(map[string]bool{"pong": true})
			data, _ := json.Marshal(resp)
			_, _ = conn.Write(servertcp.FrameMessage(data))
		}
	}()
}

func TestClientSendReceivesResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	echoPingServer(t, ln)

	c, err := New(ln.Addr().String(), WithDialTimeout(2*time.Second), WithRunTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if got := c.State(); got != Connected {
		t.Fatalf("expected Connected, got %v", got)
	}

	resp, err := c.Send(context.Background(), &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Method: "ping"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error response: %+v", resp.Error)
	}
	var result map[string]bool
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !result["pong"] {
		t.Fatalf("expected pong=true, got %v", result)
	}
}

func TestClientConnectFailsOnBadAddress(t *testing.T) {
	_, err := New("127.0.0.1:1", WithDialTimeout(200*time.Millisecond))
	if err == nil {
		t.Fatalf("expected dial error for a closed port")
	}
}

func TestClientReconnectsAfterDisconnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	connected := make(chan net.Conn, 2)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			connected <- conn
			go func(conn net.Conn) {
				for {
					if _, err := servertcp.ReadFrame(conn, 0); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	var states []State
	c, err := New(ln.Addr().String(),
		WithDialTimeout(2*time.Second),
		WithReconnect(ReconnectConfig{
			Enable:        true,
			MaxAttempts:   5,
			InitialDelay:  10 * time.Millisecond,
			MaxDelay:      50 * time.Millisecond,
			BackoffFactor: 2,
			Randomize:     false,
		}),
		WithOnStateChange(func(from, to State) { states = append(states, to) }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	first := <-connected
	_ = first.Close() // force the client's read loop to see an error

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not observe a reconnect within timeout")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == Connected {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if c.State() != Connected {
		t.Fatalf("expected client to reach Connected after reconnect, got %v", c.State())
	}

	var sawReconnecting bool
	for _, s := range states {
		if s == Reconnecting {
			sawReconnecting = true
		}
	}
	if !sawReconnecting {
		t.Fatalf("expected a Reconnecting state transition, got %v", states)
	}
}

func TestReconnectConfigNextDelayCapsAtMaxDelay(t *testing.T) {
	cfg := ReconnectConfig{
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      40 * time.Millisecond,
		BackoffFactor: 2,
		Randomize:     false,
	}
	if d := cfg.nextDelay(1); d != 10*time.Millisecond {
		t.Fatalf("attempt 1: expected 10ms, got %v", d)
	}
	if d := cfg.nextDelay(3); d != 40*time.Millisecond {
		t.Fatalf("attempt 3: expected 40ms, got %v", d)
	}
	if d := cfg.nextDelay(10); d != 40*time.Millisecond {
		t.Fatalf("attempt 10: expected delay capped at 40ms, got %v", d)
	}
}
