package embedding

import "math"

// normalizeVector scales a vector to unit length (magnitude = 1), which the
// inner-product similarity search downstream requires. Zero vectors pass
// through unchanged to avoid division by zero.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
