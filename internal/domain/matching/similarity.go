package matching

import "math"

// CosineSimilarity returns dot(a, b) / (|a| * |b|).
// Empty, mismatched or zero-norm inputs yield 0 instead of NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / math.Sqrt(normA*normB)
	if math.IsNaN(sim) {
		return 0
	}
	// rounding can push parallel vectors a hair past the unit interval
	return math.Max(-1, math.Min(1, sim))
}

// Centroid averages vectors of the most common dimension. Vectors of any other
// dimension are ignored. It returns nil when nothing usable remains.
func Centroid(vectors [][]float32) []float32 {
	dim := dominantDim(vectors)
	if dim == 0 {
		return nil
	}
	sum := make([]float64, dim)
	count := 0
	for _, vec := range vectors {
		if len(vec) != dim {
			continue
		}
		for i, v := range vec {
			sum[i] += float64(v)
		}
		count++
	}
	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / float64(count))
	}
	return out
}

func dominantDim(vectors [][]float32) int {
	counts := make(map[int]int)
	best, bestCount := 0, 0
	for _, vec := range vectors {
		if len(vec) == 0 {
			continue
		}
		counts[len(vec)]++
		if c := counts[len(vec)]; c > bestCount {
			best, bestCount = len(vec), c
		}
	}
	return best
}

// BandFor buckets an overall similarity score.
func BandFor(similarity float64) (ScoreBand, string) {
	switch {
	case similarity >= 0.85:
		return BandExcellent, "Excellent alignment"
	case similarity >= 0.65:
		return BandGood, "Good match"
	case similarity >= 0.45:
		return BandPartial, "Partial fit"
	default:
		return BandLow, "Low alignment"
	}
}
