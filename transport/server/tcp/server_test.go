package tcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
)

func bytesReader(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}

type echoHandler struct{}

func (echoHandler) Serve(_ context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = request.Jsonrpc
	response.Result, _ = json.Marshal(map[string]bool{"pong": true})
}

func (echoHandler) OnNotification(_ context.Context, _ *jsonrpc.Notification) {}

func newEchoHandler(_ context.Context, _ transport.Transport) transport.Handler {
	return echoHandler{}
}

func startTestServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	srv := New("127.0.0.1:0", newEchoHandler, opts...)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv.listener = ln
	srv.addr = ln.Addr().String()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			srv.wg.Add(1)
			go srv.serveConn(context.Background(), conn)
		}
	}()
	t.Cleanup(func() { _ = srv.Close() })
	return srv, ln.Addr().String()
}

func TestFrameRoundTrip(t *testing.T) {
	original := []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	framed := FrameMessage(original)
	r := bytesReader(framed)
	decoded, err := ReadFrame(r, 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(decoded) != string(original) {
		t.Fatalf("round trip mismatch: got %q want %q", decoded, original)
	}
}

func TestReadFrameEnforcesMaxMessageSize(t *testing.T) {
	framed := FrameMessage(make([]byte, 100))
	_, err := ReadFrame(bytesReader(framed), 10)
	if err == nil {
		t.Fatalf("expected max message size error")
	}
}

func TestReadFrameRejectsZeroLength(t *testing.T) {
	framed := FrameMessage(nil)
	_, err := ReadFrame(bytesReader(framed), 0)
	if err == nil {
		t.Fatalf("expected zero-length frame to be rejected")
	}
}

func TestServerClosesConnectionOnZeroLengthFrame(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write(FrameMessage(nil)); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatalf("expected connection to be closed after a zero-length frame")
	}
}

func TestServerRespondsOverTCP(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req := []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	if _, err := conn.Write(FrameMessage(req)); err != nil {
		t.Fatalf("write: %v", err)
	}

	payload, err := ReadFrame(conn, 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	var resp jsonrpc.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var result map[string]bool
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !result["pong"] {
		t.Fatalf("expected pong=true")
	}
}

func TestServerIdleTimeoutClosesConnection(t *testing.T) {
	_, addr := startTestServer(t, WithIdleTimeout(50*time.Millisecond))

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	if err == nil {
		t.Fatalf("expected connection to be closed after idle timeout")
	}
}
