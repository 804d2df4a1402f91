package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalJSON encodes v as compact JSON with map keys in sorted order and
// HTML escaping disabled, so equal content always yields equal bytes.
func CanonicalJSON(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// calculateHash computes the SHA256 digest of the canonical encoding of
// {Index, Timestamp, Data, PreviousHash}.
func calculateHash(index int, timestamp int64, data Payload, prevHash string) (string, error) {
	content, err := CanonicalJSON(map[string]any{
		"Index":        index,
		"Timestamp":    timestamp,
		"Data":         data,
		"PreviousHash": prevHash,
	})
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:]), nil
}
