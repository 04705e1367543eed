package jsonrpc

// AsRequestIntId normalizes a RequestId into an int, returning ok=false when
// the id is not an integral JSON number (e.g. a string id or nil).
func AsRequestIntId(id RequestId) (int, bool) {
	switch v := id.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
