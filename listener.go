package jsonrpc

// Listener is invoked with every message a client sends or receives; it is
// used by transport/client implementations to support passive observation
// (audit logging, tracing) without altering dispatch behaviour.
type Listener func(message *Message)
