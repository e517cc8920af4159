package vigil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"go.uber.org/zap"

	"github.com/vigil-ac/vigil/internal/bans"
	"github.com/vigil-ac/vigil/internal/keyring"
	"github.com/vigil-ac/vigil/internal/session"
	"github.com/vigil-ac/vigil/internal/wire"
)

const nonceSize = 32

// Engine defines a public type used by vigil APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config  Config
	log     *zap.Logger
	keyring *keyring.Keyring
	store   *session.Store
	metrics *Metrics
	audit   *auditDispatcher
	bans    *bans.Ledger

	// now is the validator clock; swapped in tests for deterministic
	// rate-check timing.
	now func() time.Time
}

// Close drains the audit dispatcher. Live connections are not touched; the
// caller's transport shutdown drives their teardown.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under pressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Open registers a new connection: it creates the session, issues the
// challenge nonce, arms the handshake deadline, and sends auth_challenge.
//
// Refusals happen here too: a banned remote host is closed before a nonce is
// ever issued, and an empty keyring refuses every connection immediately
// after creation — misconfiguration is fatal to the connection, never to the
// process.
func (e *Engine) Open(ctx context.Context, id string, t Transport) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if id == "" || t == nil {
		return ErrTransportRequired
	}

	addr := t.RemoteAddr()

	banned, err := e.bans.Banned(ctx, addr)
	if err != nil {
		// Fail open: a broken ledger must not lock out legitimate players.
		e.log.Warn("ban ledger unavailable", zap.Error(err))
	}
	if banned {
		e.metrics.Inc(MetricBanRefused)
		e.emitAudit(ctx, AuditEvent{
			EventType:  AuditBanRefused,
			SessionID:  id,
			RemoteAddr: addr,
			Reason:     ReasonBanned,
		})
		if err := t.Close(ClosePolicyViolation, ReasonBanned); err != nil {
			t.Terminate()
		}
		return ErrBanned
	}

	nonce, err := newNonce()
	if err != nil {
		e.log.Error("nonce generation failed", zap.Error(err))
		t.Terminate()
		return err
	}

	s := session.New(id, addr, t, nonce)
	if err := e.store.Add(s); err != nil {
		t.Terminate()
		return ErrSessionExists
	}

	e.metrics.Inc(MetricSessionOpened)
	e.emitAudit(ctx, AuditEvent{
		EventType:  AuditSessionOpen,
		SessionID:  id,
		RemoteAddr: addr,
	})

	if e.keyring.Empty() {
		e.log.Error("refusing connection: keyring is empty",
			zap.String("session_id", id))
		e.emitAudit(ctx, AuditEvent{
			EventType:  AuditKeyringMisconfigured,
			SessionID:  id,
			RemoteAddr: addr,
			Reason:     ReasonUnavailable,
		})
		e.drop(ctx, s, CloseTryAgainLater, ReasonUnavailable)
		return ErrEmptyKeyring
	}

	s.ArmTimer(e.config.Handshake.Timeout, func() {
		e.handshakeExpired(id)
	})

	if err := s.Transport.Send(wire.Challenge(nonce)); err != nil {
		e.log.Warn("challenge send failed",
			zap.String("session_id", id), zap.Error(err))
		e.teardown(ctx, s)
		s.Transport.Terminate()
		return err
	}

	return nil
}

// Receive processes one inbound message for a connection. Messages belonging
// to the same connection must be delivered serially and in arrival order;
// the engine applies all effects of message n before the caller may deliver
// message n+1.
func (e *Engine) Receive(ctx context.Context, id string, raw []byte) error {
	if e == nil {
		return ErrEngineNotReady
	}
	s, ok := e.store.Get(id)
	if !ok {
		return ErrSessionNotFound
	}

	if len(raw) > e.config.Telemetry.MaxMessageBytes {
		e.kill(ctx, s, ReasonOversizedMessage, MetricKillOversized)
		return ErrOversizedMessage
	}

	in, err := wire.ParseInbound(raw)
	if err != nil {
		if s.State() == session.Challenging {
			return e.rejectHandshake(ctx, s)
		}
		e.kill(ctx, s, ReasonMalformedMessage, MetricKillMalformed)
		return ErrMalformedMessage
	}

	// ping bypasses everything, before and after authorization, and touches
	// no telemetry state.
	if in.Cmd == wire.CmdPing {
		e.metrics.Inc(MetricPing)
		if err := s.Transport.Send(wire.Pong(e.now().UnixMilli())); err != nil {
			e.teardown(ctx, s)
			s.Transport.Terminate()
		}
		return nil
	}

	if s.State() == session.Challenging {
		return e.handleHandshake(ctx, s, raw, in)
	}
	return e.handleTelemetry(ctx, s, raw)
}

// Disconnect handles an externally-initiated close: it cancels any pending
// handshake timer and removes the session from the registry, exactly once.
func (e *Engine) Disconnect(ctx context.Context, id string) {
	if e == nil {
		return
	}
	s := e.store.Remove(id)
	if s == nil {
		return
	}
	if s.MarkClosed() {
		e.metrics.Inc(MetricSessionClosed)
		e.emitAudit(ctx, AuditEvent{
			EventType:  AuditSessionClose,
			SessionID:  s.ID,
			RemoteAddr: s.RemoteAddr,
		})
	}
}

// kill is the distinguished termination path for protocol and anti-cheat
// violations: notify the peer, close with a policy-violation code, record a
// strike. If the notification or the close fails, terminate unconditionally.
func (e *Engine) kill(ctx context.Context, s *session.Session, reason string, metric MetricID) {
	if !s.MarkClosed() {
		return
	}

	e.metrics.Inc(metric)
	e.log.Info("killing connection",
		zap.String("session_id", s.ID),
		zap.String("remote_addr", s.RemoteAddr),
		zap.String("reason", reason))

	notified := s.Transport.Send(wire.Kill()) == nil
	if err := s.Transport.Close(ClosePolicyViolation, reason); err != nil || !notified {
		s.Transport.Terminate()
	}

	e.finalize(ctx, s, AuditKill, reason)

	if banned, err := e.bans.RecordStrike(ctx, s.RemoteAddr); err != nil {
		e.log.Warn("ban ledger unavailable", zap.Error(err))
	} else if banned {
		e.log.Info("remote host reached strike limit",
			zap.String("remote_addr", s.RemoteAddr))
	}
}

// drop closes a connection without the kill notification; used for refusals
// that are not anti-cheat violations (handshake rejection, misconfiguration).
func (e *Engine) drop(ctx context.Context, s *session.Session, code int, reason string) {
	if !s.MarkClosed() {
		return
	}
	if err := s.Transport.Close(code, reason); err != nil {
		s.Transport.Terminate()
	}
	e.finalize(ctx, s, AuditSessionClose, reason)
}

// teardown removes a session after a transport failure; nothing is sent.
func (e *Engine) teardown(ctx context.Context, s *session.Session) {
	if !s.MarkClosed() {
		return
	}
	e.finalize(ctx, s, AuditSessionClose, "")
}

// finalize applies the registry and accounting effects of a close. Callers
// must hold the MarkClosed token.
func (e *Engine) finalize(ctx context.Context, s *session.Session, eventType, reason string) {
	e.store.Remove(s.ID)
	e.metrics.Inc(MetricSessionClosed)
	e.emitAudit(ctx, AuditEvent{
		EventType:  eventType,
		SessionID:  s.ID,
		RemoteAddr: s.RemoteAddr,
		KeyVersion: s.KeyVersion(),
		Reason:     reason,
	})
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	event.Timestamp = e.now()
	e.audit.Emit(ctx, event)
}

func newNonce() (string, error) {
	var b [nonceSize]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}
