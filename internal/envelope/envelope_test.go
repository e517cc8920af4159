package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	return key
}

// sealGCM produces (iv, ciphertext, tag) the way a client extension would.
func sealGCM(t *testing.T, key, plaintext []byte) (iv, ct, tag []byte) {
	t.Helper()

	iv = make([]byte, 12)
	if _, err := rand.Read(iv); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher failed: %v", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatalf("cipher.NewGCM failed: %v", err)
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)
	return iv, sealed[:len(sealed)-16], sealed[len(sealed)-16:]
}

func sealCBC(t *testing.T, key, plaintext []byte) (iv, ct []byte) {
	t.Helper()

	iv = make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := make([]byte, len(plaintext)+pad)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(pad)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher failed: %v", err)
	}
	ct = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
	return iv, ct
}

func TestParseStructure(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"ciphertext field", `{"iv":"AAAA","ciphertext":"BBBB"}`, true},
		{"data field", `{"iv":"AAAA","data":"BBBB"}`, true},
		{"extra fields tolerated", `{"iv":"AAAA","data":"BBBB","alg":"aes-256-gcm","junk":1}`, true},
		{"missing iv", `{"ciphertext":"BBBB"}`, false},
		{"empty iv", `{"iv":"","ciphertext":"BBBB"}`, false},
		{"both ciphertext names", `{"iv":"AAAA","ciphertext":"BBBB","data":"CCCC"}`, false},
		{"neither ciphertext name", `{"iv":"AAAA"}`, false},
		{"not an object", `[1,2,3]`, false},
		{"not json", `iv=AAAA`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			if tc.ok && err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrMalformed) {
				t.Fatalf("Parse = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestDecryptGCMRoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte(`{"nonce":"abc123"}`)
	iv, ct, tag := sealGCM(t, key, plaintext)

	env := &Envelope{
		IV:         hex.EncodeToString(iv),
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
		Tag:        base64.RawURLEncoding.EncodeToString(tag),
	}

	got, err := Decrypt(env, key)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal([]byte(got), plaintext) {
		t.Fatalf("Decrypt = %q, want %q", got, plaintext)
	}
}

func TestDecryptGCMSelectedByAlgHint(t *testing.T) {
	key := testKey(t)
	iv, ct, tag := sealGCM(t, key, []byte("hello"))

	// No tag field at all, but alg names GCM: AEAD mode is selected and the
	// zero-length tag fails the length check without crashing.
	env := &Envelope{
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(append(ct, tag...)),
		Alg:        "AES-256-GCM",
	}
	if _, err := Decrypt(env, key); !errors.Is(err, ErrTagLength) {
		t.Fatalf("Decrypt = %v, want ErrTagLength", err)
	}
}

func TestDecryptGCMTagAndIVBounds(t *testing.T) {
	key := testKey(t)
	iv, ct, tag := sealGCM(t, key, []byte("hello"))

	short := &Envelope{
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(ct),
		Tag:        hex.EncodeToString(tag[:8]),
	}
	if _, err := Decrypt(short, key); !errors.Is(err, ErrTagLength) {
		t.Fatalf("short tag: Decrypt = %v, want ErrTagLength", err)
	}

	badIV := &Envelope{
		IV:         hex.EncodeToString(iv[:4]),
		Ciphertext: hex.EncodeToString(ct),
		Tag:        hex.EncodeToString(tag),
	}
	if _, err := Decrypt(badIV, key); !errors.Is(err, ErrIVLength) {
		t.Fatalf("short iv: Decrypt = %v, want ErrIVLength", err)
	}
}

func TestDecryptGCMWrongKeyIsOpaque(t *testing.T) {
	key := testKey(t)
	other := testKey(t)
	iv, ct, tag := sealGCM(t, key, []byte("hello"))

	env := &Envelope{
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(ct),
		Tag:        hex.EncodeToString(tag),
	}
	if _, err := Decrypt(env, other); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("Decrypt = %v, want ErrDecrypt", err)
	}
}

func TestDecryptCBCRoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte(`{"nonce":"xyz"}`)
	iv, ct := sealCBC(t, key, plaintext)

	env := &Envelope{
		IV:         base64.StdEncoding.EncodeToString(iv),
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
	}

	got, err := Decrypt(env, key)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal([]byte(got), plaintext) {
		t.Fatalf("Decrypt = %q, want %q", got, plaintext)
	}
}

func TestDecryptCBCLengthChecks(t *testing.T) {
	key := testKey(t)
	iv, ct := sealCBC(t, key, []byte("hello"))

	badIV := &Envelope{
		IV:         hex.EncodeToString(iv[:8]),
		Ciphertext: hex.EncodeToString(ct),
	}
	if _, err := Decrypt(badIV, key); !errors.Is(err, ErrIVLength) {
		t.Fatalf("cbc iv: Decrypt = %v, want ErrIVLength", err)
	}

	ragged := &Envelope{
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(ct[:len(ct)-1]),
	}
	if _, err := Decrypt(ragged, key); !errors.Is(err, ErrCiphertextLength) {
		t.Fatalf("ragged ct: Decrypt = %v, want ErrCiphertextLength", err)
	}
}

func TestDecryptCBCWrongKeyIsOpaque(t *testing.T) {
	key := testKey(t)
	other := testKey(t)
	iv, ct := sealCBC(t, key, []byte(`{"nonce":"xyz"}`))

	env := &Envelope{
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(ct),
	}

	// Wrong-key CBC either fails padding (opaque error) or, rarely, yields
	// garbage plaintext; both must look identical to a caller beyond the
	// returned payload being unusable.
	if got, err := Decrypt(env, other); err != nil {
		if !errors.Is(err, ErrDecrypt) {
			t.Fatalf("Decrypt = %v, want ErrDecrypt", err)
		}
	} else if got == `{"nonce":"xyz"}` {
		t.Fatal("wrong key decrypted to the original plaintext")
	}
}

func TestDecryptBadEncoding(t *testing.T) {
	key := testKey(t)
	env := &Envelope{IV: "!!not-encodable!!", Ciphertext: "AAAA"}
	if _, err := Decrypt(env, key); !errors.Is(err, ErrBadEncoding) {
		t.Fatalf("Decrypt = %v, want ErrBadEncoding", err)
	}
}
