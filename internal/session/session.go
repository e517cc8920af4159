package session

import (
	"sync"
	"time"
)

// State is the handshake state of a session. The transition is one-way and
// happens at most once.
type State uint8

const (
	// Challenging is the initial state: a nonce has been issued and the
	// session waits for the client's envelope.
	Challenging State = iota
	// Authorized is the terminal state: the envelope decrypted under a
	// keyring key and echoed the issued nonce.
	Authorized
)

func (s State) String() string {
	switch s {
	case Challenging:
		return "challenging"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Transport is the session-side view of the duplex connection: send and close
// primitives only. The connection itself is owned by the gateway; the session
// only references it.
type Transport interface {
	Send(data []byte) error
	Close(code int, reason string) error
	Terminate()
	RemoteAddr() string
}

// Coord is the last-accepted frame position.
type Coord struct {
	X, Y float64
}

// Baseline is a snapshot of the validation baselines a telemetry batch is
// checked against.
type Baseline struct {
	SeqNext  uint64
	HasTime  bool
	At       time.Time
	Pct      float64
	HasCoord bool
	Coord    Coord
}

// Session is the per-connection protocol state. One exists per live
// connection, owned by the Store for its lifetime. Message processing for a
// single connection is serial; the internal mutex exists for the handshake
// timer and teardown paths, which run on other goroutines.
type Session struct {
	ID         string
	RemoteAddr string
	CreatedAt  time.Time
	Transport  Transport

	mu         sync.Mutex
	state      State
	nonce      string
	keyVersion string
	timer      *time.Timer

	seqNext  uint64
	hasTime  bool
	lastAt   time.Time
	lastPct  float64
	hasCoord bool
	last     Coord

	closed bool
}

// New creates a session in the Challenging state with the issued nonce and
// the first expected telemetry sequence number.
func New(id, remoteAddr string, t Transport, nonce string) *Session {
	return &Session{
		ID:         id,
		RemoteAddr: remoteAddr,
		CreatedAt:  time.Now(),
		Transport:  t,
		state:      Challenging,
		nonce:      nonce,
		seqNext:    1,
	}
}

// Nonce returns the issued challenge nonce.
func (s *Session) Nonce() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce
}

// State returns the current handshake state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// KeyVersion returns the keyring version that authorized the session, or ""
// while challenging.
func (s *Session) KeyVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyVersion
}

// Authorize transitions Challenging→Authorized and records the matching key
// version. It reports false if the session is already authorized or closed;
// the transition never happens twice.
func (s *Session) Authorize(version string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != Challenging {
		return false
	}
	s.state = Authorized
	s.keyVersion = version
	return true
}

// ArmTimer schedules f after d. At most one timer exists per session; arming
// replaces and stops any previous one.
func (s *Session) ArmTimer(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, f)
}

// CancelTimer stops the handshake deadline timer. Cancelling an already-fired
// or already-cancelled timer is a no-op.
func (s *Session) CancelTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// MarkClosed flags the session as torn down. It reports true exactly once;
// every teardown path gates on it so close effects are applied a single time
// regardless of which path won.
func (s *Session) MarkClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return true
}

// Closed reports whether teardown has begun.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot returns the current validation baselines.
func (s *Session) Snapshot() Baseline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Baseline{
		SeqNext:  s.seqNext,
		HasTime:  s.hasTime,
		At:       s.lastAt,
		Pct:      s.lastPct,
		HasCoord: s.hasCoord,
		Coord:    s.last,
	}
}

// AdvanceSeq records acceptance of the expected sequence number.
func (s *Session) AdvanceSeq() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqNext++
}

// CommitProgress records a fully validated (time, percent) pair as the new
// rate baseline. Never called for a message that failed validation.
func (s *Session) CommitProgress(at time.Time, pct float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasTime = true
	s.lastAt = at
	s.lastPct = pct
}

// CommitCoord records a fully validated frame position as the new coordinate
// baseline. Called frame by frame, so a batch aborted mid-way keeps the
// positions accepted before the failing frame.
func (s *Session) CommitCoord(c Coord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasCoord = true
	s.last = c
}
