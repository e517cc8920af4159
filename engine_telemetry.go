package vigil

import (
	"context"
	"math"
	"time"

	"github.com/vigil-ac/vigil/internal/session"
	"github.com/vigil-ac/vigil/internal/wire"
)

// handleTelemetry validates one telemetry batch against the session's
// baselines, in a fixed order: shape, sequence, progress rate, batch size,
// then per-frame plausibility. The first failing check kills the connection;
// baselines written before the failure stand, nothing after it is processed.
func (e *Engine) handleTelemetry(ctx context.Context, s *session.Session, raw []byte) error {
	start := time.Now()

	msg, err := wire.ParseTelemetry(raw)
	if err != nil {
		// A malformed message after authorization is hostile, not recoverable.
		e.kill(ctx, s, ReasonMalformedMessage, MetricKillMalformed)
		return ErrMalformedMessage
	}

	b := s.Snapshot()

	if msg.Seq != b.SeqNext {
		e.kill(ctx, s, ReasonSequenceViolation, MetricKillSequence)
		return ErrSequenceViolation
	}
	s.AdvanceSeq()

	now := e.now()
	if b.HasTime {
		elapsed := now.Sub(b.At).Seconds()
		if elapsed <= 0 {
			// Non-monotonic or corrupted timing is its own violation.
			e.kill(ctx, s, ReasonClockSkew, MetricKillSpeedhack)
			return ErrRateViolation
		}

		// A negative or zero delta models death or restart resetting
		// progress; always accepted.
		delta := msg.CurrentPct - b.Pct
		if delta > 0 {
			allowance := e.config.Telemetry.PctBurstAllowance + e.config.Telemetry.MaxPctPerSecond*elapsed
			if delta > allowance {
				e.kill(ctx, s, ReasonSpeedhack, MetricKillSpeedhack)
				return ErrRateViolation
			}
		}
	}
	s.CommitProgress(now, msg.CurrentPct)

	if len(msg.Frames) > e.config.Telemetry.MaxFramesPerBatch {
		e.kill(ctx, s, ReasonFrameLimit, MetricKillFrameLimit)
		return ErrFrameLimit
	}

	if err := e.checkFrames(ctx, s, b, msg.Frames); err != nil {
		return err
	}

	e.metrics.Inc(MetricTelemetryAccepted)
	e.metrics.Add(MetricFramesAccepted, uint64(len(msg.Frames)))
	e.metrics.Observe(MetricValidateLatency, time.Since(start))
	return nil
}

// checkFrames applies the coarse coordinate heuristics frame by frame. The
// baseline chains within the batch: frame i+1 is checked against frame i,
// not only against the pre-batch baseline. This is explicitly a placeholder
// for true physics validation.
func (e *Engine) checkFrames(ctx context.Context, s *session.Session, b session.Baseline, frames []wire.Frame) error {
	maxMag := e.config.Telemetry.MaxCoordMagnitude
	maxDelta := e.config.Telemetry.MaxCoordDelta

	hasPrev := b.HasCoord
	prev := b.Coord

	for i := range frames {
		f := frames[i]

		// A frame missing either coordinate is skipped entirely; it already
		// counted toward the batch-size limit.
		if !f.HasX || !f.HasY {
			continue
		}
		if f.Invalid {
			e.kill(ctx, s, ReasonInvalidCoordinates, MetricKillInvalidCoordinates)
			return ErrInvalidCoordinates
		}
		if math.Abs(f.X) > maxMag || math.Abs(f.Y) > maxMag {
			e.kill(ctx, s, ReasonImpossibleCoordinates, MetricKillCoordinateBounds)
			return ErrCoordinateBounds
		}
		if hasPrev && (math.Abs(f.X-prev.X) > maxDelta || math.Abs(f.Y-prev.Y) > maxDelta) {
			e.kill(ctx, s, ReasonImpossibleMovement, MetricKillCoordinateDelta)
			return ErrCoordinateDelta
		}

		prev = session.Coord{X: f.X, Y: f.Y}
		hasPrev = true
		s.CommitCoord(prev)
	}

	return nil
}
