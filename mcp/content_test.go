package mcp

import "testing"

func TestNewTextContent(t *testing.T) {
	c := NewTextContent("text/plain", "hi")
	if c.Type != ContentText {
		t.Fatalf("expected ContentText, got %v", c.Type)
	}
	if c.Size != 2 {
		t.Fatalf("expected size 2, got %d", c.Size)
	}
	if string(c.Data) != "hi" {
		t.Fatalf("expected data 'hi', got %q", c.Data)
	}
}

func TestNewJSONContent(t *testing.T) {
	c := NewJSONContent([]byte(`{"a":1}`))
	if c.Type != ContentJSON {
		t.Fatalf("expected ContentJSON, got %v", c.Type)
	}
	if c.MimeType != "application/json" {
		t.Fatalf("expected application/json, got %q", c.MimeType)
	}
}

func TestNewBinaryContent(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	c := NewBinaryContent("application/octet-stream", data)
	if c.Type != ContentBinary {
		t.Fatalf("expected ContentBinary, got %v", c.Type)
	}
	if c.Size != len(data) {
		t.Fatalf("expected size %d, got %d", len(data), c.Size)
	}
}

func TestContentItemCloneIsIndependent(t *testing.T) {
	original := NewTextContent("text/plain", "hello")
	clone := original.Clone()

	clone.Data[0] = 'H'
	if original.Data[0] == 'H' {
		t.Fatalf("mutating the clone's data mutated the original")
	}
	if string(clone.Data) != "Hello" {
		t.Fatalf("unexpected clone content: %q", clone.Data)
	}
}
