// Package decode implements the dual-encoding rule shared by the keyring
// builder and the envelope codec: a value is accepted as hex when it is an
// even-length string of hex digits, otherwise as base64. URL-safe base64 is
// detected by the presence of '-' or '_' with no '+' or '/'. Padding is
// optional in both base64 alphabets.
//
// # What this package must NOT do
//
//   - Validate decoded lengths (key size, IV size); callers own that.
//   - Import any sibling internal package.
package decode

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrBadEncoding reports a value that is neither valid hex nor valid base64.
var ErrBadEncoding = errors.New("value is neither hex nor base64")

// Flexible decodes s under the dual-encoding rule. Hex wins when a value is
// valid under both alphabets.
func Flexible(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrBadEncoding
	}

	if len(s)%2 == 0 && isHex(s) {
		b, err := hex.DecodeString(s)
		if err == nil {
			return b, nil
		}
	}

	trimmed := strings.TrimRight(s, "=")
	enc := base64.RawStdEncoding
	if strings.ContainsAny(trimmed, "-_") && !strings.ContainsAny(trimmed, "+/") {
		enc = base64.RawURLEncoding
	}

	b, err := enc.DecodeString(trimmed)
	if err != nil {
		return nil, ErrBadEncoding
	}
	return b, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
