package mcp

import "testing"

func TestResourceFields(t *testing.T) {
	r := Resource{URI: "file:///a.txt", Name: "a", MimeType: "text/plain"}
	if r.URI != "file:///a.txt" {
		t.Fatalf("unexpected URI: %q", r.URI)
	}
}

func TestToolResultCarriesContent(t *testing.T) {
	result := ToolResult{
		Content: []ContentItem{NewTextContent("text/plain", "ok")},
		IsError: false,
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(result.Content))
	}
	if result.IsError {
		t.Fatalf("did not expect an error result")
	}
}
