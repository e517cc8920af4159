// Package session holds per-connection protocol state and the concurrent
// registry of live sessions.
//
// A session moves through exactly two states, Challenging then Authorized,
// at most once. Telemetry baselines (expected sequence, last progress, last
// coordinate) mutate only after the corresponding message fully passed
// validation. The handshake deadline timer is a cancellable handle with
// idempotent cancellation, invoked from both the success transition and the
// teardown path.
//
// # What this package must NOT do
//
//   - Validate anything; sequencing, rate, and coordinate policy live in the
//     engine.
//   - Own the transport; the session only references it to send and close.
package session
