// Package dispatcher implements the request dispatcher from spec §4.9: it
// parses a JSON-RPC message, authenticates it, rate-limits it, routes it to
// a built-in or user-registered handler (optionally consulting the resource
// cache), runs the handler on a bounded worker pool, and serializes the
// response.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/cache"
	"github.com/viant/jsonrpc/mcp"
	"github.com/viant/jsonrpc/ratelimit"
	"github.com/viant/jsonrpc/transport/server/base"
)

// AuthContext is what Verify produces: who the caller is and what they may do.
type AuthContext struct {
	Principal string
	Role      string
}

// Verifier authenticates an inbound request. A nil Verifier means every
// request is accepted as an anonymous principal.
type Verifier interface {
	Verify(ctx context.Context, req *jsonrpc.Request) (AuthContext, error)
}

// KeyExtractor derives a rate-limit key from the request context, e.g. the
// caller's IP, authenticated user id, or API key.
type KeyExtractor func(ctx context.Context, auth AuthContext) (ratelimit.KeyType, string)

// ResourceHandler serves a dynamic (non-static) resource read.
type ResourceHandler func(ctx context.Context, uri string) ([]mcp.ContentItem, error)

// ToolHandler invokes a registered tool.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (mcp.ToolResult, error)

// registeredTemplate pairs a ResourceTemplate with the handler serving it;
// the first matching template in registration order wins (spec §4.9 step 5).
type registeredTemplate struct {
	template mcp.ResourceTemplate
	matcher  func(uri string) bool
	handler  ResourceHandler
}

// Dispatcher is the dispatcher entry point described by spec §4.9.
type Dispatcher struct {
	mu sync.RWMutex

	resources     map[string]mcp.Resource
	resourceData  map[string]ResourceHandler
	templates     []registeredTemplate
	tools         map[string]mcp.Tool
	toolHandlers  map[string]ToolHandler
	cacheableURIs map[string]bool

	verifier     Verifier
	limiter      *ratelimit.Limiter
	extractKey   KeyExtractor
	cache        *cache.Cache
	pool         *WorkerPool
	metrics      *Metrics

	activeRequests int64
	shuttingDown   int32
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

func WithVerifier(v Verifier) Option            { return func(d *Dispatcher) { d.verifier = v } }
func WithRateLimiter(l *ratelimit.Limiter, ex KeyExtractor) Option {
	return func(d *Dispatcher) { d.limiter = l; d.extractKey = ex }
}
func WithCache(c *cache.Cache) Option { return func(d *Dispatcher) { d.cache = c } }
func WithWorkerPool(p *WorkerPool) Option { return func(d *Dispatcher) { d.pool = p } }

// New creates a Dispatcher. If no worker pool option is given, a pool of 8
// workers with a 256-task queue is created.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resources:     make(map[string]mcp.Resource),
		resourceData:  make(map[string]ResourceHandler),
		tools:         make(map[string]mcp.Tool),
		toolHandlers:  make(map[string]ToolHandler),
		cacheableURIs: make(map[string]bool),
		metrics:       NewMetrics(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.pool == nil {
		d.pool = NewWorkerPool(8, 256)
	}
	return d
}

// RegisterResource registers a static resource.
func (d *Dispatcher) RegisterResource(r mcp.Resource, handler ResourceHandler, cacheable bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resources[r.URI] = r
	d.resourceData[r.URI] = handler
	d.cacheableURIs[r.URI] = cacheable
}

// RegisterTemplate registers a resource template and its handler. matcher
// decides whether a given concrete URI belongs to this template.
func (d *Dispatcher) RegisterTemplate(t mcp.ResourceTemplate, matcher func(uri string) bool, handler ResourceHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.templates = append(d.templates, registeredTemplate{template: t, matcher: matcher, handler: handler})
}

// RegisterTool registers a tool and its invocation handler.
func (d *Dispatcher) RegisterTool(t mcp.Tool, handler ToolHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tools[t.Name] = t
	d.toolHandlers[t.Name] = handler
}

// Handle implements spec §4.9's handle_message: parse, authenticate,
// rate-limit, route, dispatch on the worker pool, serialize. A nil return
// with nil error means the message was a notification and produces no reply.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) ([]byte, error) {
	if atomic.LoadInt32(&d.shuttingDown) == 1 {
		return d.serialize(jsonrpc.NewInternalError(nil, fmt.Errorf("server shutting down"), nil))
	}

	msgType := base.MessageType(raw)
	if msgType == jsonrpc.MessageTypeNotification {
		var note jsonrpc.Notification
		if err := json.Unmarshal(raw, &note); err != nil {
			return nil, nil // malformed notification: drop silently
		}
		d.dispatchNotification(ctx, &note)
		return nil, nil
	}

	var req jsonrpc.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return d.serialize(jsonrpc.NewParsingError(nil, err, raw))
	}
	if atomic.LoadInt32(&d.shuttingDown) == 1 {
		return d.serialize(jsonrpc.NewInternalError(req.Id, fmt.Errorf("server shutting down"), nil))
	}

	atomic.AddInt64(&d.activeRequests, 1)
	defer atomic.AddInt64(&d.activeRequests, -1)
	d.metrics.requestsTotal.Inc()

	auth, err := d.authenticate(ctx, &req)
	if err != nil {
		d.metrics.requestsDenied.Inc()
		return d.serialize(jsonrpc.NewForbiddenError(req.Id, err.Error()))
	}

	if denied := d.rateLimited(ctx, auth); denied {
		d.metrics.requestsDenied.Inc()
		return d.serialize(jsonrpc.NewRateLimitError(req.Id, "rate limit exceeded"))
	}

	resultCh := make(chan *jsonrpc.Response, 1)
	submitted := d.pool.Submit(func() {
		resultCh <- d.route(ctx, auth, &req)
	})
	if !submitted {
		d.metrics.requestsDenied.Inc()
		return d.serialize(jsonrpc.NewInternalError(req.Id, fmt.Errorf("worker pool saturated"), nil))
	}

	select {
	case resp := <-resultCh:
		d.metrics.requestsCompleted.Inc()
		return d.serialize(resp)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) dispatchNotification(ctx context.Context, note *jsonrpc.Notification) {
	// Notifications never produce a reply; built-in methods have no
	// notification-shaped counterpart in this dispatcher, so this is
	// presently a hook point for future fire-and-forget methods.
	_ = ctx
	_ = note
}

func (d *Dispatcher) authenticate(ctx context.Context, req *jsonrpc.Request) (AuthContext, error) {
	if d.verifier == nil {
		return AuthContext{Principal: "anonymous"}, nil
	}
	return d.verifier.Verify(ctx, req)
}

func (d *Dispatcher) rateLimited(ctx context.Context, auth AuthContext) bool {
	if d.limiter == nil || d.extractKey == nil {
		return false
	}
	keyType, key := d.extractKey(ctx, auth)
	allowed, matched := d.limiter.Allow(keyType, key)
	return matched && !allowed
}

func (d *Dispatcher) serialize(v interface{}) ([]byte, error) {
	switch actual := v.(type) {
	case *jsonrpc.Response:
		return json.Marshal(actual)
	case *jsonrpc.Error:
		return json.Marshal(actual)
	default:
		return json.Marshal(v)
	}
}

func (d *Dispatcher) ActiveRequests() int64 { return atomic.LoadInt64(&d.activeRequests) }

// Shutdown flips the shutting-down flag and waits for in-flight requests to
// drain, up to deadline. Remaining work is abandoned when the deadline
// elapses, per spec §4.9's graceful shutdown contract.
func (d *Dispatcher) Shutdown(ctx context.Context, deadline time.Duration) error {
	atomic.StoreInt32(&d.shuttingDown, 1)
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if atomic.LoadInt64(&d.activeRequests) == 0 {
			d.pool.Close()
			return nil
		}
		select {
		case <-timer.C:
			d.pool.Close()
			return fmt.Errorf("dispatcher: shutdown deadline exceeded with %d requests still active", d.ActiveRequests())
		case <-ctx.Done():
			d.pool.Close()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// matchTemplate returns the first registered template matching uri,
// in registration order (spec §4.9 step 5: "first matching template in
// registration order wins").
func (d *Dispatcher) matchTemplate(uri string) (registeredTemplate, bool) {
	for _, rt := range d.templates {
		if rt.matcher(uri) {
			return rt, true
		}
	}
	return registeredTemplate{}, false
}
