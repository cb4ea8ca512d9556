package ml

import "math"

// IModelCost scores a whole output vector against a one-hot target and
// produces the error to inject into the output layer. Deltas must already
// account for any non-elementwise transform the cost applies (softmax),
// so the output layer pairs with IdentityActivation in that case.
type IModelCost interface {
	Cost(output, target []float64) float64
	Deltas(output, target, dst []float64)
}

// CrossEntropyCost is softmax followed by categorical cross-entropy,
// fused: Cost is -sum(t*log(p)) over p=softmax(output), and the gradient
// with respect to the logits collapses to p-t.
type CrossEntropyCost struct{}

func (*CrossEntropyCost) Cost(output, target []float64) float64 {
	var probs = Softmax(output)
	var cost float64
	for i := range probs {
		if target[i] == 0 {
			continue
		}
		cost -= target[i] * math.Log(math.Max(probs[i], 1e-12))
	}
	return cost
}

func (*CrossEntropyCost) Deltas(output, target, dst []float64) {
	var probs = Softmax(output)
	for i := range probs {
		dst[i] = probs[i] - target[i]
	}
}

// MSECost is the summed squared error. Pairs with a sigmoid output layer.
type MSECost struct{}

func (*MSECost) Cost(output, target []float64) float64 {
	var cost float64
	for i := range output {
		var x = output[i] - target[i]
		cost += x * x
	}
	return cost
}

func (*MSECost) Deltas(output, target, dst []float64) {
	for i := range output {
		dst[i] = 2 * (output[i] - target[i])
	}
}
