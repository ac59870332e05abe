package domain

import (
	"math"
	"testing"
)

func TestNormalize_UnitLength(t *testing.T) {
	vec := Normalize([]float32{3, 4})

	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalized vector: %v", vec)
	}

	var norm float64
	for _, f := range vec {
		norm += float64(f) * float64(f)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("norm is not 1: %v", norm)
	}
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	vec := Normalize([]float32{0, 0, 0})

	for i, f := range vec {
		if f != 0 {
			t.Fatalf("zero vector changed at %d: %v", i, vec)
		}
	}
}

func TestNormalize_AlreadyUnit(t *testing.T) {
	vec := Normalize([]float32{0, 1})

	if vec[0] != 0 || math.Abs(float64(vec[1])-1) > 1e-6 {
		t.Fatalf("unit vector changed: %v", vec)
	}
}
