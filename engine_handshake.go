package vigil

import (
	"context"
	"crypto/subtle"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/vigil-ac/vigil/internal/envelope"
	"github.com/vigil-ac/vigil/internal/session"
	"github.com/vigil-ac/vigil/internal/wire"
)

// authPayload is the expected shape of a decrypted envelope. Extra fields
// are tolerated.
type authPayload struct {
	Nonce string `json:"nonce"`
}

// handleHandshake runs the key-trial loop over one candidate envelope while
// the session is Challenging.
//
// The trial order is the keyring's fixed order. A decrypt failure of any
// kind, or plaintext that is not a valid auth payload, moves on to the next
// key — a key that "successfully" decrypts garbage must look exactly like a
// key that failed, which matters for the unauthenticated block-cipher mode.
// A syntactically valid payload with the wrong nonce stops the loop and
// rejects: that is a replay or desync signal, not a wrong-key signal, and
// trying further keys would mask it.
func (e *Engine) handleHandshake(ctx context.Context, s *session.Session, raw []byte, in *wire.Inbound) error {
	candidate := raw
	if len(in.Payload) > 0 && string(in.Payload) != "null" {
		candidate = in.Payload
	}

	env, err := envelope.Parse(candidate)
	if err != nil {
		return e.rejectHandshake(ctx, s)
	}

	for _, entry := range e.keyring.Entries() {
		plain, err := envelope.Decrypt(env, entry.Key[:])
		if err != nil {
			continue
		}

		var payload authPayload
		if err := json.Unmarshal([]byte(plain), &payload); err != nil || payload.Nonce == "" {
			continue
		}

		if !nonceEqual(payload.Nonce, s.Nonce()) {
			e.metrics.Inc(MetricHandshakeRejected)
			e.log.Warn("nonce mismatch during handshake",
				zap.String("session_id", s.ID),
				zap.String("remote_addr", s.RemoteAddr))
			e.emitAudit(ctx, AuditEvent{
				EventType:  AuditHandshakeRejected,
				SessionID:  s.ID,
				RemoteAddr: s.RemoteAddr,
				Reason:     ReasonNonceMismatch,
			})
			e.drop(ctx, s, ClosePolicyViolation, ReasonNonceMismatch)
			return ErrNonceMismatch
		}

		if !s.Authorize(entry.Version) {
			// Torn down while we were trialling keys.
			return nil
		}
		s.CancelTimer()

		e.metrics.Inc(MetricHandshakeAuthorized)
		e.log.Info("session authorized",
			zap.String("session_id", s.ID),
			zap.String("key_version", entry.Version))
		e.emitAudit(ctx, AuditEvent{
			EventType:  AuditHandshakeOK,
			SessionID:  s.ID,
			RemoteAddr: s.RemoteAddr,
			KeyVersion: entry.Version,
		})

		if err := s.Transport.Send(wire.AuthOK(entry.Version)); err != nil {
			e.teardown(ctx, s)
			s.Transport.Terminate()
			return err
		}
		return nil
	}

	// Every key failed to decrypt or to parse. One generic outcome; never
	// how many keys exist or how far each one got.
	return e.rejectHandshake(ctx, s)
}

// rejectHandshake closes a Challenging session with the single opaque
// unauthorized outcome.
func (e *Engine) rejectHandshake(ctx context.Context, s *session.Session) error {
	e.metrics.Inc(MetricHandshakeRejected)
	e.emitAudit(ctx, AuditEvent{
		EventType:  AuditHandshakeRejected,
		SessionID:  s.ID,
		RemoteAddr: s.RemoteAddr,
		Reason:     ReasonUnauthorized,
	})
	e.drop(ctx, s, ClosePolicyViolation, ReasonUnauthorized)
	return ErrUnauthorized
}

// handshakeExpired fires on the deadline timer goroutine.
func (e *Engine) handshakeExpired(id string) {
	s, ok := e.store.Get(id)
	if !ok || s.State() != session.Challenging {
		return
	}

	ctx := context.Background()
	e.metrics.Inc(MetricHandshakeTimeout)
	e.emitAudit(ctx, AuditEvent{
		EventType:  AuditHandshakeRejected,
		SessionID:  s.ID,
		RemoteAddr: s.RemoteAddr,
		Reason:     ReasonHandshakeTimeout,
	})
	e.drop(ctx, s, ClosePolicyViolation, ReasonHandshakeTimeout)
}

// nonceEqual is a constant-time, length-checked comparison.
func nonceEqual(got, want string) bool {
	if len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
