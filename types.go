package vigil

// Close reason strings. Short, machine-auditable, and deliberately coarse:
// a legitimate client can debug against them, a hostile one learns nothing
// about cryptographic internals.
const (
	ReasonUnauthorized          = "unauthorized"
	ReasonNonceMismatch         = "nonce_mismatch"
	ReasonHandshakeTimeout      = "handshake_timeout"
	ReasonUnavailable           = "unavailable"
	ReasonBanned                = "banned"
	ReasonMalformedMessage      = "malformed_message"
	ReasonOversizedMessage      = "oversized_message"
	ReasonSequenceViolation     = "sequence_violation"
	ReasonSpeedhack             = "speedhack"
	ReasonClockSkew             = "clock_skew"
	ReasonFrameLimit            = "frame_limit"
	ReasonInvalidCoordinates    = "invalid_coordinates"
	ReasonImpossibleCoordinates = "impossible_coordinates"
	ReasonImpossibleMovement    = "impossible_movement"
)

// SessionInfo is the safe introspection view for a live session. It
// intentionally excludes the challenge nonce and the transport handle.
type SessionInfo struct {
	SessionID   string
	RemoteAddr  string
	CreatedAt   int64
	State       string
	KeyVersion  string
	ExpectedSeq uint64
	HasProgress bool
	LastPct     float64
}

// KeySpec is one version→encoded-key pair handed to the builder. The key is
// accepted as 64-character hex or base64 and must decode to exactly 32 bytes.
type KeySpec struct {
	Version string
	Key     string
}
