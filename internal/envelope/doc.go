// Package envelope parses and decrypts the loosely-typed ciphertext container
// a client sends in response to an authentication challenge.
//
// # Mode selection
//
// An envelope is decrypted under AES-256-GCM when it carries a tag or its
// declared algorithm names GCM; otherwise under AES-256-CBC for backward
// compatibility with older game extensions. CBC carries no integrity check:
// the handshake's nonce comparison is the only tamper signal in that mode.
//
// # What this package must NOT do
//
//   - Distinguish cryptographic failure causes to the caller beyond
//     [ErrDecrypt]; length and format violations are the only detailed kinds.
//   - Interpret the plaintext; JSON decoding belongs to the handshake.
//   - Hold or select keys; the keyring and trial loop live elsewhere.
package envelope
