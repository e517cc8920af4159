package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"errors"
	"strings"

	"github.com/vigil-ac/vigil/internal/decode"
)

const (
	gcmTagSize = 16
	gcmIVMin   = 12
	gcmIVMax   = 32
	cbcIVSize  = aes.BlockSize

	// aeadHint selects AEAD mode when it appears in the declared algorithm.
	aeadHint = "gcm"
)

var (
	// ErrMalformed reports an envelope that fails structural validation.
	ErrMalformed = errors.New("malformed envelope")
	// ErrBadEncoding reports an envelope field that is neither hex nor base64.
	ErrBadEncoding = errors.New("envelope field has invalid encoding")
	// ErrIVLength reports an IV outside the selected mode's bounds.
	ErrIVLength = errors.New("invalid iv length")
	// ErrTagLength reports an authentication tag that is not exactly 16 bytes.
	ErrTagLength = errors.New("invalid tag length")
	// ErrCiphertextLength reports a block-mode ciphertext that is empty or not
	// block-aligned.
	ErrCiphertextLength = errors.New("invalid ciphertext length")
	// ErrDecrypt is the single opaque failure for every cryptographic error:
	// bad tag, bad padding, bad key. Collapsing them denies the peer a
	// decryption oracle.
	ErrDecrypt = errors.New("decrypt failed")
)

// Envelope is the structured, encrypted container a client sends in response
// to a challenge, after structural validation.
type Envelope struct {
	IV         string
	Ciphertext string
	Tag        string
	Alg        string
}

// Parse validates the structure of a raw envelope: a non-empty iv and exactly
// one of the two accepted ciphertext field names, non-empty. Unrecognized
// extra fields are tolerated and ignored.
func Parse(raw []byte) (*Envelope, error) {
	var w struct {
		IV         string `json:"iv"`
		Ciphertext string `json:"ciphertext"`
		Data       string `json:"data"`
		Tag        string `json:"tag"`
		Alg        string `json:"alg"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, ErrMalformed
	}
	if w.IV == "" {
		return nil, ErrMalformed
	}
	if (w.Ciphertext == "") == (w.Data == "") {
		return nil, ErrMalformed
	}

	ct := w.Ciphertext
	if ct == "" {
		ct = w.Data
	}
	return &Envelope{IV: w.IV, Ciphertext: ct, Tag: w.Tag, Alg: w.Alg}, nil
}

// aead reports whether the envelope selects AEAD mode: an explicit tag, or a
// declared algorithm containing the AEAD mode name case-insensitively.
func (e *Envelope) aead() bool {
	return e.Tag != "" || strings.Contains(strings.ToLower(e.Alg), aeadHint)
}

// Decrypt decodes the envelope's fields and decrypts the ciphertext under
// key, returning the plaintext as UTF-8 text. The caller owns interpreting
// the plaintext (typically JSON-decoding it).
//
// AEAD mode is AES-256-GCM with a detached 16-byte tag. Block mode is
// AES-256-CBC with PKCS#7 padding and no integrity check; it exists for
// backward compatibility and its trustworthiness rests entirely on the
// caller's nonce comparison. That is a calculated risk, not a bug.
func Decrypt(e *Envelope, key []byte) (string, error) {
	iv, err := decode.Flexible(e.IV)
	if err != nil {
		return "", ErrBadEncoding
	}
	ct, err := decode.Flexible(e.Ciphertext)
	if err != nil {
		return "", ErrBadEncoding
	}

	if e.aead() {
		return decryptGCM(iv, ct, e.Tag, key)
	}
	return decryptCBC(iv, ct, key)
}

func decryptGCM(iv, ct []byte, encodedTag string, key []byte) (string, error) {
	// A missing tag decodes to zero length and fails the length check below;
	// a decrypt failure, not a crash.
	var tag []byte
	if encodedTag != "" {
		var err error
		tag, err = decode.Flexible(encodedTag)
		if err != nil {
			return "", ErrBadEncoding
		}
	}
	if len(tag) != gcmTagSize {
		return "", ErrTagLength
	}
	if len(iv) < gcmIVMin || len(iv) > gcmIVMax {
		return "", ErrIVLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrDecrypt
	}
	aead, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return "", ErrDecrypt
	}

	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

func decryptCBC(iv, ct, key []byte) (string, error) {
	if len(iv) != cbcIVSize {
		return "", ErrIVLength
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", ErrCiphertextLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrDecrypt
	}

	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	plain, err = pkcs7Unpad(plain)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, ErrDecrypt
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrDecrypt
		}
	}
	return b[:len(b)-n], nil
}
