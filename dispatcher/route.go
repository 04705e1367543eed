package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/mcp"
)

// route resolves req.Method to a built-in or user-registered handler and
// returns a fully-formed Response (never nil: every Request gets a reply).
func (d *Dispatcher) route(ctx context.Context, auth AuthContext, req *jsonrpc.Request) *jsonrpc.Response {
	switch req.Method {
	case "ping":
		return d.handlePing(req)
	case "list_resources":
		return d.handleListResources(req)
	case "list_resource_templates":
		return d.handleListResourceTemplates(req)
	case "read_resource":
		return d.handleReadResource(ctx, req)
	case "list_tools":
		return d.handleListTools(req)
	case "call_tool":
		return d.handleCallTool(ctx, req)
	case "get_performance_metrics":
		return d.handleGetMetrics(req)
	case "reset_performance_metrics":
		return d.handleResetMetrics(req)
	default:
		return errorResponse(jsonrpc.NewMethodNotFound(req.Id, fmt.Errorf("method not found: %s", req.Method), nil))
	}
}

func errorResponse(e *jsonrpc.Error) *jsonrpc.Response {
	return &jsonrpc.Response{Id: e.Id, Jsonrpc: jsonrpc.Version, Error: &e.Error}
}

func resultResponse(id jsonrpc.RequestId, v interface{}) *jsonrpc.Response {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResponse(jsonrpc.NewInternalError(id, err, nil))
	}
	return jsonrpc.NewResponse(id, data)
}

func (d *Dispatcher) handlePing(req *jsonrpc.Request) *jsonrpc.Response {
	return resultResponse(req.Id, map[string]string{"status": "ok"})
}

func (d *Dispatcher) handleListResources(req *jsonrpc.Request) *jsonrpc.Response {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]mcp.Resource, 0, len(d.resources))
	for _, r := range d.resources {
		out = append(out, r)
	}
	return resultResponse(req.Id, map[string]interface{}{"resources": out})
}

func (d *Dispatcher) handleListResourceTemplates(req *jsonrpc.Request) *jsonrpc.Response {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]mcp.ResourceTemplate, 0, len(d.templates))
	for _, rt := range d.templates {
		out = append(out, rt.template)
	}
	return resultResponse(req.Id, map[string]interface{}{"resourceTemplates": out})
}

type readResourceParams struct {
	URI string `json:"uri"`
}

// handleReadResource implements spec §4.9 step 5/6: static resource lookup,
// then template router in registration order; a URI matched by neither gets
// a resource-not-found error, as there is no catch-all resource handler.
// Cacheable reads consult the cache first and populate it on miss.
func (d *Dispatcher) handleReadResource(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var params readResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return errorResponse(jsonrpc.NewInvalidParams(req.Id, fmt.Errorf("uri is required"), nil))
	}

	d.mu.RLock()
	handler, isStatic := d.resourceData[params.URI]
	cacheable := d.cacheableURIs[params.URI]
	d.mu.RUnlock()

	if !isStatic {
		if rt, ok := d.matchTemplate(params.URI); ok {
			handler = rt.handler
		}
	}
	if handler == nil {
		return errorResponse(jsonrpc.NewResourceNotFoundError(req.Id, params.URI))
	}

	if cacheable && d.cache != nil {
		if items, ok := d.cache.Get(params.URI); ok {
			return resultResponse(req.Id, map[string]interface{}{"contents": items})
		}
	}

	items, err := handler(ctx, params.URI)
	if err != nil {
		return errorResponse(jsonrpc.NewInternalError(req.Id, err, nil))
	}
	if cacheable && d.cache != nil {
		d.cache.Put(params.URI, items, 0)
	}
	return resultResponse(req.Id, map[string]interface{}{"contents": items})
}

func (d *Dispatcher) handleListTools(req *jsonrpc.Request) *jsonrpc.Response {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]mcp.Tool, 0, len(d.tools))
	for _, t := range d.tools {
		out = append(out, t)
	}
	return resultResponse(req.Id, map[string]interface{}{"tools": out})
}

type callToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

func (d *Dispatcher) handleCallTool(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(jsonrpc.NewInvalidParams(req.Id, err, nil))
	}

	d.mu.RLock()
	tool, ok := d.tools[params.Name]
	handler := d.toolHandlers[params.Name]
	d.mu.RUnlock()
	if !ok || handler == nil {
		return errorResponse(jsonrpc.NewToolNotFoundError(req.Id, params.Name))
	}

	if err := validateArguments(tool.InputSchema, params.Arguments); err != nil {
		return errorResponse(jsonrpc.NewInvalidParams(req.Id, err, nil))
	}

	result, err := handler(ctx, params.Arguments)
	if err != nil {
		return errorResponse(jsonrpc.NewInternalError(req.Id, err, nil))
	}
	return resultResponse(req.Id, result)
}

func (d *Dispatcher) handleGetMetrics(req *jsonrpc.Request) *jsonrpc.Response {
	return resultResponse(req.Id, d.metrics.Snapshot())
}

func (d *Dispatcher) handleResetMetrics(req *jsonrpc.Request) *jsonrpc.Response {
	d.metrics.Reset()
	return resultResponse(req.Id, map[string]string{"status": "reset"})
}
