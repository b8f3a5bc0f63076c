package aiwrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// canonical is the deterministic CBOR encoder used for cache keys and
// cached values. Core deterministic encoding guarantees the same
// payload always serializes to the same bytes.
var canonical cbor.EncMode

func init() {
	var err error
	canonical, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("aiwrap: cbor encoder init: %v", err))
	}
}

// CacheKey derives the cache key of an invocation from the operation
// id and the canonical encoding of its payload.
func CacheKey(operationID string, payload any) (string, error) {
	enc, err := canonical.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("aiwrap: encode payload: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(operationID))
	h.Write(enc)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// encodeValue serializes a validated result for cache storage.
func encodeValue(v any) ([]byte, error) {
	return canonical.Marshal(v)
}

// decodeValue deserializes a cached result.
func decodeValue(data []byte) (any, error) {
	var v any
	if err := cbor.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	// CBOR decodes integers to uint64/int64; results are float64.
	switch n := v.(type) {
	case uint64:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return v, nil
}
