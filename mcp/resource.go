package mcp

// Resource is a single addressable piece of host content (a file, a row, a
// document) identified by URI.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// ResourceTemplate describes a family of resources reachable through a
// URI template (RFC 6570 style, e.g. "file:///{path}").
type ResourceTemplate struct {
	URITemplate string
	Name        string
	Description string
	MimeType    string
}

// Tool is an invocable host capability with a JSON Schema describing its
// arguments.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// ToolResult is what a tool invocation produces.
type ToolResult struct {
	Content []ContentItem
	IsError bool
}
