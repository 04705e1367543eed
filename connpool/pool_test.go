package connpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeConn struct {
	healthy int32
	closed  int32
}

func (f *fakeConn) Close() error             { atomic.StoreInt32(&f.closed, 1); return nil }
func (f *fakeConn) Healthy() bool            { return atomic.LoadInt32(&f.healthy) == 1 }
func newFakeConn() *fakeConn                 { return &fakeConn{healthy: 1} }
func fakeDialer() (Dialer, *int32) {
	var dials int32
	return func(ctx context.Context) (Conn, error) {
		atomic.AddInt32(&dials, 1)
		return newFakeConn(), nil
	}, &dials
}

func TestPoolPrewarmsMin(t *testing.T) {
	dial, dials := fakeDialer()
	p, err := New(Config{Min: 2, Max: 4, ConnectTimeout: time.Second}, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()
	if got := atomic.LoadInt32(dials); got != 2 {
		t.Fatalf("expected 2 prewarmed dials, got %d", got)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 connections, got %d", p.Len())
	}
}

func TestPoolGetReleaseRoundTrip(t *testing.T) {
	dial, _ := fakeDialer()
	p, err := New(Config{Min: 1, Max: 2, ConnectTimeout: time.Second}, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	conn, err := p.Get(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	p.Release(conn)

	conn2, err := p.Get(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if conn2 != conn {
		t.Fatalf("expected to reuse the released connection")
	}
}

func TestPoolGetGrowsUnderMax(t *testing.T) {
	dial, dials := fakeDialer()
	p, err := New(Config{Min: 0, Max: 2, ConnectTimeout: time.Second}, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	c1, err := p.Get(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Get 1: %v", err)
	}
	_, err = p.Get(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Get 2: %v", err)
	}
	if got := atomic.LoadInt32(dials); got != 2 {
		t.Fatalf("expected 2 dials, got %d", got)
	}
	_ = c1
}

func TestPoolGetTimesOutWhenExhausted(t *testing.T) {
	dial, _ := fakeDialer()
	p, err := New(Config{Min: 1, Max: 1, ConnectTimeout: time.Second}, dial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	if _, err := p.Get(context.Background(), time.Second); err != nil {
		t.Fatalf("Get: %v", err)
	}
	start := time.Now()
	_, err = p.Get(context.Background(), 30*time.Millisecond)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("returned too early: %v", elapsed)
	}
}
