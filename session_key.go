package jsonrpc

// ctxKey is an unexported type so values stored by this package cannot
// collide with keys set by other packages via context.WithValue.
type ctxKey int

const sessionCtxKey ctxKey = iota

// SessionKey is the context key under which transports store the current
// session (an *transport/server/base.Session or a plain session id string
// for lightweight clients) so handlers can recover connection identity.
var SessionKey = sessionCtxKey
