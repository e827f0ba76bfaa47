// Package cas provides the content hashing used by the cache formats:
// BLAKE3 digests and canonical JSON serialization.
package cas

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"

	"lukechampine.com/blake3"
)

// ShortIDLength is the width, in hex characters, of a canonical asset id.
const ShortIDLength = 16

// CanonicalJSON encodes v as JSON with object keys sorted at every level,
// so equal values always encode to equal bytes.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeCanonical writes a decoded JSON value. Scalars, json.Number included,
// go through json.Marshal unchanged.
func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := slices.Sorted(maps.Keys(val))
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return nil
}

// Blake3Hash returns the 32-byte BLAKE3 digest of data.
func Blake3Hash(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}

// Blake3HashHex is Blake3Hash, hex encoded.
func Blake3HashHex(data []byte) string {
	return hex.EncodeToString(Blake3Hash(data))
}

// NewBlake3Hasher returns a streaming hasher producing the same digests as
// Blake3Hash.
func NewBlake3Hasher() *blake3.Hasher {
	return blake3.New(32, nil)
}

// ShortID returns the first ShortIDLength hex characters of the BLAKE3
// digest of data, the same width as a canonical asset id.
func ShortID(data []byte) string {
	return Blake3HashHex(data)[:ShortIDLength]
}

// Verify reports whether digest is the BLAKE3 hash of data.
func Verify(data, digest []byte) bool {
	return bytes.Equal(Blake3Hash(data), digest)
}
