package vector

import (
	"math"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []float32{0.1, -2.5, 3.75, 0}
	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Cosine = %f, want %f", tt.name, got, tt.want)
		}
	}
}

func TestMean(t *testing.T) {
	out, err := Mean([][]float32{{2, 0}, {0, 2}})
	if err != nil {
		t.Fatal(err)
	}
	// Mean (1,1) normalizes to (1/sqrt2, 1/sqrt2).
	want := float32(1 / math.Sqrt(2))
	if math.Abs(float64(out[0]-want)) > 1e-6 || math.Abs(float64(out[1]-want)) > 1e-6 {
		t.Errorf("Mean = %v, want [%f %f]", out, want, want)
	}

	if _, err := Mean(nil); err == nil {
		t.Error("expected error for empty set")
	}
	if _, err := Mean([][]float32{{1}, {1, 2}}); err == nil {
		t.Error("expected error for ragged set")
	}
}
