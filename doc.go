// Package vigil provides the per-connection protocol engine behind a
// real-time anti-cheat telemetry gateway: a cryptographic challenge-response
// handshake against a versioned keyring, followed by a stateful plausibility
// validator applied to every telemetry batch a game-side extension pushes
// over a persistent duplex connection.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build], provided messages belonging to one connection are
// delivered serially and in arrival order — the sequence, rate, and
// coordinate checks depend on strictly ordered mutation of session state.
// The wsgateway subpackage provides a WebSocket binding that upholds this.
//
// # Architecture boundaries
//
// vigil is the public surface. It exposes [Engine], [Builder], [Config],
// [Transport], and value types (SessionInfo, AuditEvent, MetricsSnapshot).
// All protocol mechanics — keyring assembly, envelope decryption, session
// state, the strike ledger — live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Own the transport: framing, dial/accept, and connection lifecycle
//     belong to the caller; the engine only sends and closes through the
//     [Transport] it is handed.
//   - Reveal cryptographic detail to peers: every handshake failure beyond a
//     nonce mismatch surfaces as one generic unauthorized outcome.
//   - Attempt physics-accurate cheat detection; the coordinate checks are
//     bounded-plausibility heuristics only.
package vigil
