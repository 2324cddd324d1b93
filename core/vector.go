package core

import "math"

// EmbeddingText is the text an entity is embedded from: its name, followed by
// its summary when there is one.
func EmbeddingText(name, summary string) string {
	if summary == "" {
		return name
	}
	return name + ": " + summary
}

// NormalizeVector scales v to unit length and returns a new slice.
// Zero and empty vectors are returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * norm
	}
	return out
}
