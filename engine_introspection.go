package vigil

import (
	"github.com/vigil-ac/vigil/internal/session"
)

// ActiveSessionCount reports the number of live sessions.
func (e *Engine) ActiveSessionCount() int {
	if e == nil || e.store == nil {
		return 0
	}
	return e.store.Len()
}

// ListSessions returns the safe introspection view of every live session, in
// no particular order.
func (e *Engine) ListSessions() []SessionInfo {
	if e == nil || e.store == nil {
		return nil
	}

	live := e.store.All()
	out := make([]SessionInfo, 0, len(live))
	for _, s := range live {
		out = append(out, sessionInfo(s))
	}
	return out
}

// GetSession returns the introspection view of one session.
func (e *Engine) GetSession(id string) (SessionInfo, error) {
	if e == nil || e.store == nil {
		return SessionInfo{}, ErrEngineNotReady
	}
	s, ok := e.store.Get(id)
	if !ok {
		return SessionInfo{}, ErrSessionNotFound
	}
	return sessionInfo(s), nil
}

func sessionInfo(s *session.Session) SessionInfo {
	b := s.Snapshot()
	return SessionInfo{
		SessionID:   s.ID,
		RemoteAddr:  s.RemoteAddr,
		CreatedAt:   s.CreatedAt.Unix(),
		State:       s.State().String(),
		KeyVersion:  s.KeyVersion(),
		ExpectedSeq: b.SeqNext,
		HasProgress: b.HasTime,
		LastPct:     b.Pct,
	}
}
