// Package wire defines the JSON message vocabulary exchanged over the duplex
// connection and the permissive decoders for dynamically-shaped client input.
//
// Server to client: auth_challenge, auth_ok, pong, kill. Client to server:
// ping, the auth-response envelope (handled by the envelope package), and
// telemetry batches. Unknown fields are tolerated everywhere; shapes that
// fail the contract are rejected at this boundary instead of flowing deeper
// into the engine as ambiguous values.
//
// # What this package must NOT do
//
//   - Make validation decisions beyond structure (sequence, rate, and
//     coordinate policy belong to the engine).
//   - Touch the transport.
package wire
