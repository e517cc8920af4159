package wire

import (
	"encoding/json"
	"errors"
	"math"
)

// Command tags carried in the "cmd" field of framed messages.
const (
	CmdPing          = "ping"
	CmdPong          = "pong"
	CmdAuthChallenge = "auth_challenge"
	CmdAuthOK        = "auth_ok"
	CmdKill          = "kill"
)

// ErrMalformed reports an inbound message that fails shape validation.
var ErrMalformed = errors.New("malformed message")

// Inbound is the minimal first-pass view of a client message: the command
// tag, if any, and the payload sub-object some client builds wrap their
// auth envelope in. Everything else stays raw for the second-pass decoders.
type Inbound struct {
	Cmd     string          `json:"cmd"`
	Payload json.RawMessage `json:"payload"`
}

// ParseInbound decodes the first-pass view. Any non-object top level is
// malformed, including the JSON literal null, which Unmarshal would
// otherwise accept as a no-op.
func ParseInbound(raw []byte) (*Inbound, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, ErrMalformed
	}

	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, ErrMalformed
	}
	return &in, nil
}

// Telemetry is one validated-shape telemetry batch. Extra fields on the wire
// are tolerated and dropped.
type Telemetry struct {
	Seq        uint64
	CurrentPct float64
	Frames     []Frame
}

// ParseTelemetry decodes and shape-checks a telemetry batch: seq must be a
// non-negative integer, current_pct a finite number, and frames an array
// (possibly empty). Anything else is malformed.
func ParseTelemetry(raw []byte) (*Telemetry, error) {
	var w struct {
		Seq        *int64   `json:"seq"`
		CurrentPct *float64 `json:"current_pct"`
		Frames     *[]Frame `json:"frames"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, ErrMalformed
	}
	if w.Seq == nil || *w.Seq < 0 {
		return nil, ErrMalformed
	}
	if w.CurrentPct == nil || math.IsNaN(*w.CurrentPct) || math.IsInf(*w.CurrentPct, 0) {
		return nil, ErrMalformed
	}
	if w.Frames == nil {
		return nil, ErrMalformed
	}

	return &Telemetry{
		Seq:        uint64(*w.Seq),
		CurrentPct: *w.CurrentPct,
		Frames:     *w.Frames,
	}, nil
}

// Frame is one telemetry frame after permissive decoding. A frame is opaque
// except for its optional x/y coordinates; decoding never fails the batch, it
// only records what the validator needs: whether each coordinate is present
// and whether a present coordinate was not a finite number.
type Frame struct {
	X, Y       float64
	HasX, HasY bool
	Invalid    bool
}

// UnmarshalJSON implements the permissive frame decoding. Non-object frames
// carry no coordinates and decode like a frame with both missing.
func (f *Frame) UnmarshalJSON(b []byte) error {
	*f = Frame{}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil
	}

	var badX, badY bool
	f.X, f.HasX, badX = parseCoord(obj["x"])
	f.Y, f.HasY, badY = parseCoord(obj["y"])
	f.Invalid = badX || badY
	return nil
}

func parseCoord(raw json.RawMessage) (val float64, present, invalid bool) {
	if len(raw) == 0 {
		return 0, false, false
	}
	if string(raw) == "null" {
		// Unmarshal treats null as a no-op, which would read as a valid 0.
		return 0, true, true
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		// Present but not a number (string, bool, object, null, or a literal
		// too large for float64).
		return 0, true, true
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, true
	}
	return v, true, false
}

// Challenge frames the server's opening auth_challenge message.
func Challenge(nonce string) []byte {
	return marshalCmd(struct {
		Cmd   string `json:"cmd"`
		Nonce string `json:"nonce"`
	}{CmdAuthChallenge, nonce})
}

// AuthOK frames the handshake success reply carrying the matched key version.
func AuthOK(version string) []byte {
	return marshalCmd(struct {
		Cmd     string `json:"cmd"`
		Version string `json:"version"`
	}{CmdAuthOK, version})
}

// Pong frames the reply to a ping, carrying the server timestamp in
// milliseconds.
func Pong(t int64) []byte {
	return marshalCmd(struct {
		Cmd string `json:"cmd"`
		T   int64  `json:"t"`
	}{CmdPong, t})
}

// Kill frames the notification sent to a peer immediately before a forced
// close.
func Kill() []byte {
	return marshalCmd(struct {
		Cmd string `json:"cmd"`
	}{CmdKill})
}

func marshalCmd(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Static shapes of strings and integers cannot fail to marshal.
		panic(err)
	}
	return b
}
