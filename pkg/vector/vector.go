// Package vector holds the small amount of float32 vector math the cache and
// pipeline share: a little-endian blob codec for SQLite storage, cosine
// similarity, and mean pooling.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes a float32 slice to little-endian bytes for blob storage.
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode deserializes little-endian bytes into a new float32 slice. A length
// that is not a multiple of 4 indicates a corrupt row.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when lengths differ
// or either vector is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Mean pools a set of equal-length vectors into their arithmetic mean,
// L2-normalized. Useful for collapsing chunk embeddings into one document
// vector. Returns an error when the set is empty or ragged.
func Mean(vs [][]float32) ([]float32, error) {
	if len(vs) == 0 {
		return nil, fmt.Errorf("mean of zero vectors")
	}
	dims := len(vs[0])
	out := make([]float32, dims)
	for _, v := range vs {
		if len(v) != dims {
			return nil, fmt.Errorf("ragged vector set: %d vs %d dims", len(v), dims)
		}
		for i, f := range v {
			out[i] += f
		}
	}
	n := float32(len(vs))
	var norm float64
	for i := range out {
		out[i] /= n
		norm += float64(out[i]) * float64(out[i])
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range out {
			out[i] *= inv
		}
	}
	return out, nil
}
