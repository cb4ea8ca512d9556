package ml

import (
	"math"
	"math/rand"
)

// InitUniform fills data with uniform noise of the requested variance.
func InitUniform(rnd *rand.Rand, data []float64, variance float64) {
	var uniformVariance = 1.0 / 12
	var scale = math.Sqrt(variance / uniformVariance)
	for i := range data {
		data[i] = (rnd.Float64() - 0.5) * scale
	}
}

// Softmax returns the probability distribution for a logit vector.
// Logits are shifted by their maximum first so large values cannot
// overflow the exponential.
func Softmax(logits []float64) []float64 {
	var maxLogit = logits[0]
	for _, v := range logits {
		if v > maxLogit {
			maxLogit = v
		}
	}
	var sum float64
	var out = make([]float64, len(logits))
	for i, v := range logits {
		var e = math.Exp(v - maxLogit)
		out[i] = e
		sum += e
	}
	var inv = 1.0 / sum
	for i := range out {
		out[i] *= inv
	}
	return out
}

// ArgMax returns the index of the largest element.
func ArgMax(values []float64) int {
	var best = 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
