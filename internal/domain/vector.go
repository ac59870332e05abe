package domain

import "math"

// Metadata keys derived by the service and merged into stored record metadata.
const (
	MetaHasText     = "has_text"
	MetaHasImage    = "has_image"
	MetaEntityID    = "entity_id"
	MetaVectorIndex = "vector_index"
)

// Normalize scales v to unit L2 norm in place and returns it.
// A zero vector is returned unchanged rather than divided by zero.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
