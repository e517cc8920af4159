package vigil

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the anti-cheat engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrBuilderReused is an exported constant or variable used by the anti-cheat engine.
	ErrBuilderReused = errors.New("builder already built an engine")
	// ErrConfiguration is an exported constant or variable used by the anti-cheat engine.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrRedisRequired is an exported constant or variable used by the anti-cheat engine.
	ErrRedisRequired = errors.New("ban ledger enabled without a redis client")
	// ErrTransportRequired is an exported constant or variable used by the anti-cheat engine.
	ErrTransportRequired = errors.New("connection id and transport required")
	// ErrSessionExists is an exported constant or variable used by the anti-cheat engine.
	ErrSessionExists = errors.New("session already registered")
	// ErrSessionNotFound is an exported constant or variable used by the anti-cheat engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmptyKeyring is an exported constant or variable used by the anti-cheat engine.
	ErrEmptyKeyring = errors.New("keyring has no usable keys")
	// ErrMalformedMessage is an exported constant or variable used by the anti-cheat engine.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrOversizedMessage is an exported constant or variable used by the anti-cheat engine.
	ErrOversizedMessage = errors.New("oversized message")
	// ErrUnauthorized is an exported constant or variable used by the anti-cheat engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNonceMismatch is an exported constant or variable used by the anti-cheat engine.
	ErrNonceMismatch = errors.New("challenge nonce mismatch")
	// ErrHandshakeTimeout is an exported constant or variable used by the anti-cheat engine.
	ErrHandshakeTimeout = errors.New("handshake deadline exceeded")
	// ErrSequenceViolation is an exported constant or variable used by the anti-cheat engine.
	ErrSequenceViolation = errors.New("telemetry sequence violation")
	// ErrRateViolation is an exported constant or variable used by the anti-cheat engine.
	ErrRateViolation = errors.New("progress rate violation")
	// ErrFrameLimit is an exported constant or variable used by the anti-cheat engine.
	ErrFrameLimit = errors.New("frame batch too large")
	// ErrInvalidCoordinates is an exported constant or variable used by the anti-cheat engine.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrCoordinateBounds is an exported constant or variable used by the anti-cheat engine.
	ErrCoordinateBounds = errors.New("impossible coordinates")
	// ErrCoordinateDelta is an exported constant or variable used by the anti-cheat engine.
	ErrCoordinateDelta = errors.New("impossible movement")
	// ErrBanned is an exported constant or variable used by the anti-cheat engine.
	ErrBanned = errors.New("remote host is banned")
)
