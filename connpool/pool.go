package connpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/jsonrpc/internal/collection"
)

// Config mirrors spec §4.8's connection pool configuration.
type Config struct {
	Min              int
	Max              int
	IdleTimeout      time.Duration
	HealthCheck      time.Duration
	ConnectTimeout   time.Duration
}

// Pool is a bounded set of outbound connections, all opened by the same
// Dialer. Idle connections are tracked in an arena list (least-recently
// released at the back) so a health-check sweep can walk them oldest-first
// without touching in-use connections.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	cfg    Config
	dial   Dialer
	all    []*pooledConn
	idle   *collection.List[int] // values are indices into all
	closed bool

	stopHealth chan struct{}
}

// New creates a Pool and pre-populates cfg.Min connections.
func New(cfg Config, dial Dialer) (*Pool, error) {
	if cfg.Max <= 0 {
		cfg.Max = 1
	}
	if cfg.Min > cfg.Max {
		cfg.Min = cfg.Max
	}
	p := &Pool{
		cfg:        cfg,
		dial:       dial,
		idle:       collection.NewList[int](),
		stopHealth: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	for i := 0; i < cfg.Min; i++ {
		if err := p.addConn(ctx); err != nil {
			return nil, fmt.Errorf("connpool: prewarm: %w", err)
		}
	}

	go p.healthLoop()
	return p, nil
}

// addConn dials a new connection and registers it as idle. Caller must not
// hold p.mu.
func (p *Pool) addConn(ctx context.Context) error {
	c, err := p.dial(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	pc := &pooledConn{conn: c, state: Idle, lastUsedAt: time.Now()}
	idx := len(p.all)
	p.all = append(p.all, pc)
	pc.listIdx = p.idle.PushFront(idx)
	return nil
}

// Get returns an Idle connection, dialing a new one if under Max, else
// blocking on the pool's condition variable until a release or timeout.
func (p *Pool) Get(ctx context.Context, timeout time.Duration) (Conn, error) {
	deadline := time.Now().Add(timeout)

	p.mu.Lock()
	for {
		if p.closed {
			p.mu.Unlock()
			return nil, fmt.Errorf("connpool: closed")
		}
		if idx := p.idle.Back(); idx != -1 {
			slot := p.idle.Value(idx)
			p.idle.Remove(idx)
			pc := p.all[slot]
			pc.state = InUse
			pc.listIdx = -1
			p.mu.Unlock()
			return pc.conn, nil
		}
		if len(p.all) < p.cfg.Max {
			p.mu.Unlock()
			if err := p.addConn(ctx); err != nil {
				return nil, err
			}
			p.mu.Lock()
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.mu.Unlock()
			return nil, fmt.Errorf("connpool: timed out waiting for connection")
		}
		waited := make(chan struct{})
		go func() {
			time.Sleep(remaining)
			p.mu.Lock()
			close(waited)
			p.cond.Broadcast()
			p.mu.Unlock()
		}()
		p.cond.Wait()
		select {
		case <-waited:
			p.mu.Unlock()
			return nil, fmt.Errorf("connpool: timed out waiting for connection")
		default:
		}
	}
}

// Release returns conn to the pool: Idle if healthy, Invalid otherwise (the
// health-check loop will reconnect or drop it).
func (p *Pool) Release(conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, pc := range p.all {
		if pc.conn != conn {
			continue
		}
		if conn.Healthy() {
			pc.state = Idle
			pc.lastUsedAt = time.Now()
			pc.listIdx = p.idle.PushFront(i)
		} else {
			pc.state = Invalid
		}
		p.cond.Signal()
		return
	}
}

// healthLoop evicts idle connections past IdleTimeout (down to Min) and
// reconnects Invalid entries, every HealthCheck interval.
func (p *Pool) healthLoop() {
	if p.cfg.HealthCheck <= 0 {
		return
	}
	ticker := time.NewTicker(p.cfg.HealthCheck)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopHealth:
			return
		case <-ticker.C:
			p.sweep()
		}
	}
}

func (p *Pool) sweep() {
	p.mu.Lock()
	now := time.Now()
	var toReconnect []int
	for i, pc := range p.all {
		if pc.state == Invalid {
			toReconnect = append(toReconnect, i)
		}
	}
	for len(p.all)-len(toReconnect) > p.cfg.Min {
		idx := p.idle.Back()
		if idx == -1 {
			break
		}
		slot := p.idle.Value(idx)
		pc := p.all[slot]
		if now.Sub(pc.lastUsedAt) < p.cfg.IdleTimeout {
			break
		}
		p.idle.Remove(idx)
		_ = pc.conn.Close()
		p.removeSlot(slot)
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ConnectTimeout)
	defer cancel()
	for _, slot := range toReconnect {
		p.reconnect(ctx, slot)
	}
}

// removeSlot must be called with p.mu held; it swap-removes all[slot] and
// fixes up the idle list's stored index for whichever connection moved in.
func (p *Pool) removeSlot(slot int) {
	last := len(p.all) - 1
	p.all[slot] = p.all[last]
	p.all = p.all[:last]
	if slot == last {
		return
	}
	moved := p.all[slot]
	if moved.listIdx != -1 {
		p.idle.Set(moved.listIdx, slot)
	}
}

func (p *Pool) reconnect(ctx context.Context, slot int) {
	p.mu.Lock()
	if slot >= len(p.all) || p.all[slot].state != Invalid {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	c, err := p.dial(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if slot >= len(p.all) {
		if err == nil {
			_ = c.Close()
		}
		return
	}
	pc := p.all[slot]
	if err != nil {
		return // stays Invalid, retried next sweep
	}
	pc.conn = c
	pc.state = Idle
	pc.lastUsedAt = time.Now()
	pc.listIdx = p.idle.PushFront(slot)
}

// Close stops the health-check loop and closes every held connection.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.stopHealth)
	for _, pc := range p.all {
		_ = pc.conn.Close()
	}
	p.all = nil
	p.cond.Broadcast()
	p.mu.Unlock()
	return nil
}

// Len reports the current number of connections (Idle + InUse + Invalid).
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.all)
}
