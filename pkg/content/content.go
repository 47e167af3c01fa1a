// Package content provides deterministic text canonicalization, fingerprinting,
// and windowing for cache keys and embedding inputs.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// SignatureDims is the width of the lexical signature vector.
const SignatureDims = 128

// Normalize unifies line endings and collapses every whitespace run to a
// single space, trimming the ends. Case is preserved: casing is semantic for
// embedding inputs.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fingerprint returns the hex SHA-256 of the normalized text. Two inputs that
// differ only in whitespace or line endings share a fingerprint.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(Normalize(s)))
	return hex.EncodeToString(sum[:])
}

// Split cuts normalized text into rune windows of at most window runes with
// consecutive windows overlapping by exactly overlap runes. Text no longer
// than window yields a single chunk. Empty text yields no chunks.
func Split(s string, window, overlap int) ([]string, error) {
	if window <= 0 {
		return nil, fmt.Errorf("chunk window must be positive, got %d", window)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= window {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than window %d", overlap, window)
	}

	runes := []rune(Normalize(s))
	if len(runes) == 0 {
		return nil, nil
	}
	if len(runes) <= window {
		return []string{string(runes)}, nil
	}

	stride := window - overlap
	var chunks []string
	for start := 0; ; start += stride {
		end := start + window
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			return chunks, nil
		}
	}
}

// Signature returns an L2-normalized hashed term-frequency vector of the
// lowercased normalized text. Signatures let the cache detect near-duplicate
// inputs without a provider call: formatting-only variants score ~1.0.
func Signature(s string) []float32 {
	sig := make([]float32, SignatureDims)
	for _, tok := range strings.Fields(strings.ToLower(Normalize(s))) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sig[h.Sum32()%SignatureDims]++
	}

	var norm float64
	for _, v := range sig {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return sig
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range sig {
		sig[i] *= inv
	}
	return sig
}
