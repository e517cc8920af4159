// Package keyring builds the ordered list of per-game-version symmetric keys
// the handshake trials client envelopes against.
//
// # Design
//
// The keyring is assembled once at process start from a static version→key
// mapping merged with an optional JSON object supplied through configuration.
// Configured entries win on version collision. Keys are accepted as
// 64-character hex or base64 (standard or URL-safe) and must decode to
// exactly 32 bytes; invalid entries are dropped with a logged warning and
// never abort startup. Trial order is insertion order.
//
// # What this package must NOT do
//
//   - Perform any cryptography; it only validates and stores key material.
//   - Log or expose raw key bytes.
//   - Mutate the keyring after Build returns.
package keyring
