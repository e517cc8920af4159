package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vigil-ac/vigil/internal/decode"
)

// KeySize is the required decoded length of every keyring key.
const KeySize = 32

var (
	// ErrExtraKeysNotObject reports an extra-keys value that is present in
	// configuration but is not a JSON object of version→key strings.
	ErrExtraKeysNotObject = errors.New("extra keys value is not a JSON object")
)

// KeySpec is one version→encoded-key pair before decoding.
type KeySpec struct {
	Version string
	Key     string
}

// Entry is one validated keyring entry.
type Entry struct {
	Version string
	Key     [KeySize]byte
}

// Keyring is an ordered, immutable list of per-version symmetric keys.
// Build it once at process start; it is safe for concurrent reads afterwards.
type Keyring struct {
	entries []Entry
}

// Build merges the static key specs with the optional extra-keys JSON object
// and decodes the result into an ordered keyring. Extra entries override
// static entries of the same version in place; new versions append in JSON
// document order. Entries whose key does not decode to exactly KeySize bytes
// are dropped with a warning, never an error: a bad key must not take the
// process down with it.
//
// Build fails only when extraJSON is present but is not a JSON object.
func Build(static []KeySpec, extraJSON string, logger *zap.Logger) (*Keyring, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	specs := make([]KeySpec, 0, len(static))
	index := make(map[string]int, len(static))
	for _, s := range static {
		if i, ok := index[s.Version]; ok {
			specs[i].Key = s.Key
			continue
		}
		index[s.Version] = len(specs)
		specs = append(specs, s)
	}

	if strings.TrimSpace(extraJSON) != "" {
		extra, err := parseExtraKeys(extraJSON)
		if err != nil {
			return nil, err
		}
		for _, s := range extra {
			if i, ok := index[s.Version]; ok {
				specs[i].Key = s.Key
				continue
			}
			index[s.Version] = len(specs)
			specs = append(specs, s)
		}
	}

	kr := &Keyring{entries: make([]Entry, 0, len(specs))}
	for _, s := range specs {
		raw, err := decode.Flexible(s.Key)
		if err != nil {
			logger.Warn("dropping keyring entry: key is not hex or base64",
				zap.String("version", s.Version))
			continue
		}
		if len(raw) != KeySize {
			logger.Warn("dropping keyring entry: decoded key has wrong length",
				zap.String("version", s.Version),
				zap.Int("decoded_len", len(raw)))
			continue
		}

		var e Entry
		e.Version = s.Version
		copy(e.Key[:], raw)
		kr.entries = append(kr.entries, e)
	}

	return kr, nil
}

// parseExtraKeys walks the object token by token so that document order is
// preserved; unmarshalling into a map would lose it.
func parseExtraKeys(extraJSON string) ([]KeySpec, error) {
	dec := json.NewDecoder(strings.NewReader(extraJSON))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraKeysNotObject, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrExtraKeysNotObject
	}

	var out []KeySpec
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExtraKeysNotObject, err)
		}
		version, ok := keyTok.(string)
		if !ok {
			return nil, ErrExtraKeysNotObject
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExtraKeysNotObject, err)
		}

		var key string
		if err := json.Unmarshal(raw, &key); err != nil {
			// Non-string value: keep the version with an empty key so Build
			// drops it with a warning instead of aborting the whole merge.
			out = append(out, KeySpec{Version: version})
			continue
		}
		out = append(out, KeySpec{Version: version, Key: key})
	}

	return out, nil
}

// Entries returns the keyring in trial order.
func (k *Keyring) Entries() []Entry {
	if k == nil {
		return nil
	}
	return k.entries
}

// Len reports the number of usable entries.
func (k *Keyring) Len() int {
	if k == nil {
		return 0
	}
	return len(k.entries)
}

// Empty reports whether the keyring holds no usable keys. An empty keyring is
// a valid build result; the engine refuses every connection against it.
func (k *Keyring) Empty() bool {
	return k.Len() == 0
}
