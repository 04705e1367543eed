// Package mcp holds the host-facing data model named by spec §3: resources,
// resource templates, tools and the content items they exchange. These are
// plain value types; the cache, dispatcher and pool packages are the ones
// that give them pooled storage and lifecycle.
package mcp

// ContentType is the kind of payload a ContentItem carries.
type ContentType string

const (
	ContentText   ContentType = "text"
	ContentJSON   ContentType = "json"
	ContentBinary ContentType = "binary"
)

// ContentItem is a single unit of resource/tool output content. It may be
// pool-backed (see package pool) — callers that receive one from the cache's
// Get must hand it back via the cache's Release.
type ContentItem struct {
	Type     ContentType
	MimeType string
	Data     []byte
	Size     int
}

// NewTextContent builds a ContentItem wrapping text.
func NewTextContent(mimeType, text string) ContentItem {
	data := []byte(text)
	return ContentItem{Type: ContentText, MimeType: mimeType, Data: data, Size: len(data)}
}

// NewJSONContent builds a ContentItem wrapping raw JSON.
func NewJSONContent(data []byte) ContentItem {
	return ContentItem{Type: ContentJSON, MimeType: "application/json", Data: data, Size: len(data)}
}

// NewBinaryContent builds a ContentItem wrapping arbitrary binary data.
func NewBinaryContent(mimeType string, data []byte) ContentItem {
	return ContentItem{Type: ContentBinary, MimeType: mimeType, Data: data, Size: len(data)}
}

// Clone returns a deep copy, used when the cache hands out a caller-owned copy.
func (c ContentItem) Clone() ContentItem {
	cp := c
	cp.Data = append([]byte(nil), c.Data...)
	return cp
}
