package vigil

// Close codes used when terminating a connection. The values follow the
// WebSocket close-code registry so transport bindings can pass them through
// unchanged; a non-WebSocket transport may map them however it likes.
const (
	// ClosePolicyViolation terminates a connection for a protocol or
	// anti-cheat violation.
	ClosePolicyViolation = 1008
	// CloseTryAgainLater refuses a connection the engine cannot serve right
	// now (misconfigured keyring).
	CloseTryAgainLater = 1013
)

// Transport is the engine's view of one duplex connection: send and close
// primitives only. The connection itself — framing, read loop, lifecycle —
// is owned by the caller; the engine references the transport and never
// outlives the session bound to it.
//
// Send and Close may be called from the connection's message goroutine and
// from the handshake deadline timer; implementations must tolerate
// concurrent calls. Terminate is the unconditional fallback when a graceful
// close itself fails.
type Transport interface {
	Send(data []byte) error
	Close(code int, reason string) error
	Terminate()
	RemoteAddr() string
}
