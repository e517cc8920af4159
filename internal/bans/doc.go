// Package bans keeps a Redis-backed strike ledger for hosts whose
// connections were killed for protocol or anti-cheat violations.
//
// The ledger is advisory and optional: without a Redis client every query
// answers "not banned", and backend failures are surfaced as
// [ErrUnavailable] so the engine can fail open instead of refusing
// legitimate players on an outage.
//
// # What this package must NOT do
//
//   - Decide what counts as a violation; the engine records strikes.
//   - Block connection handling on Redis beyond a single round-trip.
package bans
