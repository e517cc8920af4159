package internaldefs

import (
	"github.com/vigil-ac/vigil"
)

// CounterDef defines a public type used by vigil APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   vigil.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by vigil APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   vigil.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the anti-cheat engine.
var CounterDefs = []CounterDef{
	{ID: vigil.MetricSessionOpened, Name: "vigil_session_opened_total", Help: "Connections registered with the engine."},
	{ID: vigil.MetricSessionClosed, Name: "vigil_session_closed_total", Help: "Connections removed from the registry."},
	{ID: vigil.MetricHandshakeAuthorized, Name: "vigil_handshake_authorized_total", Help: "Handshakes completed against a keyring entry."},
	{ID: vigil.MetricHandshakeRejected, Name: "vigil_handshake_rejected_total", Help: "Handshakes rejected as unauthorized or nonce-mismatched."},
	{ID: vigil.MetricHandshakeTimeout, Name: "vigil_handshake_timeout_total", Help: "Handshakes dropped at the deadline."},
	{ID: vigil.MetricBanRefused, Name: "vigil_ban_refused_total", Help: "Connections refused because the remote host is banned."},
	{ID: vigil.MetricPing, Name: "vigil_ping_total", Help: "Ping messages answered."},
	{ID: vigil.MetricTelemetryAccepted, Name: "vigil_telemetry_accepted_total", Help: "Telemetry batches that passed every check."},
	{ID: vigil.MetricFramesAccepted, Name: "vigil_frames_accepted_total", Help: "Frames carried by accepted telemetry batches."},
	{ID: vigil.MetricKillMalformed, Name: "vigil_kill_malformed_total", Help: "Kills for malformed messages."},
	{ID: vigil.MetricKillOversized, Name: "vigil_kill_oversized_total", Help: "Kills for oversized messages."},
	{ID: vigil.MetricKillSequence, Name: "vigil_kill_sequence_total", Help: "Kills for sequence violations."},
	{ID: vigil.MetricKillSpeedhack, Name: "vigil_kill_speedhack_total", Help: "Kills for implausible progress rates or clock skew."},
	{ID: vigil.MetricKillFrameLimit, Name: "vigil_kill_frame_limit_total", Help: "Kills for batches over the frame limit."},
	{ID: vigil.MetricKillInvalidCoordinates, Name: "vigil_kill_invalid_coordinates_total", Help: "Kills for non-numeric or non-finite coordinates."},
	{ID: vigil.MetricKillCoordinateBounds, Name: "vigil_kill_coordinate_bounds_total", Help: "Kills for coordinates outside the magnitude bound."},
	{ID: vigil.MetricKillCoordinateDelta, Name: "vigil_kill_coordinate_delta_total", Help: "Kills for per-frame movement over the delta bound."},
}

// HistogramDefs is an exported constant or variable used by the anti-cheat engine.
var HistogramDefs = []HistogramDef{
	{ID: vigil.MetricValidateLatency, Name: "vigil_validate_latency_seconds", Help: "Telemetry validation latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the anti-cheat engine.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.0025",
	"0.005",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the anti-cheat engine.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_0025",
	"0_005",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
