package train

import (
	"math/rand"

	"github.com/gridl/2018-ComputeFest/internal/ml"
)

type Neuron struct {
	Activation float64
	Error      float64
	Prime      float64
}

type Layer struct {
	activationFn ml.IActivationFn
	outputs      []Neuron
	weights      ml.Matrix
	biases       ml.Matrix
	wGradients   ml.Gradients
	bGradients   ml.Gradients
}

func NewLayer(
	inputSize int,
	outputs []Neuron,
	activationFn ml.IActivationFn,
) *Layer {
	var outputSize = len(outputs)
	return &Layer{
		outputs:      outputs,
		activationFn: activationFn,
		weights:      ml.NewMatrix(outputSize, inputSize),
		biases:       ml.NewMatrix(outputSize, 1),
		wGradients:   ml.NewGradients(outputSize, inputSize),
		bGradients:   ml.NewGradients(outputSize, 1),
	}
}

// ThreadCopy shares the weights with the original layer but owns its
// activations and gradient accumulators, so worker goroutines only race
// on reads.
func (l *Layer) ThreadCopy() *Layer {
	return &Layer{
		activationFn: l.activationFn,
		outputs:      make([]Neuron, len(l.outputs)),
		weights:      l.weights,
		biases:       l.biases,
		wGradients:   ml.NewGradients(l.wGradients.Rows, l.wGradients.Cols),
		bGradients:   ml.NewGradients(l.bGradients.Rows, l.bGradients.Cols),
	}
}

func (layer *Layer) InitWeightsSigmoid(rnd *rand.Rand) *Layer {
	var outputSize = layer.weights.Rows
	var inputSize = layer.weights.Cols
	var variance = 2.0 / float64(inputSize+outputSize)
	ml.InitUniform(rnd, layer.weights.Data, variance)
	return layer
}

func (layer *Layer) InitWeightsReLU(rnd *rand.Rand) *Layer {
	var inputSize = layer.weights.Cols
	var variance = 2.0 / float64(inputSize)
	ml.InitUniform(rnd, layer.weights.Data, variance)
	return layer
}

// ForwardPixels feeds an input image into the layer.
func (layer *Layer) ForwardPixels(pixels []float32) {
	for outputIndex := range layer.outputs {
		var x = layer.biases.Data[outputIndex]
		for inputIndex, inputValue := range pixels {
			if inputValue == 0 {
				continue
			}
			x += layer.weights.Get(outputIndex, inputIndex) * float64(inputValue)
		}
		var n = &layer.outputs[outputIndex]
		n.Activation = layer.activationFn.Sigma(x)
		n.Prime = layer.activationFn.SigmaPrime(x)
	}
}

// Forward feeds the previous layer's activations into this one.
func (layer *Layer) Forward(input []Neuron) {
	for outputIndex := range layer.outputs {
		var x = layer.biases.Data[outputIndex]
		for inputIndex := range input {
			var inputValue = input[inputIndex].Activation
			if inputValue == 0 {
				continue
			}
			x += layer.weights.Get(outputIndex, inputIndex) * inputValue
		}
		var n = &layer.outputs[outputIndex]
		n.Activation = layer.activationFn.Sigma(x)
		n.Prime = layer.activationFn.SigmaPrime(x)
	}
}

// Backward propagates errors to the previous layer and accumulates
// weight and bias gradients.
func (layer *Layer) Backward(input []Neuron) {
	for inputIndex := range input {
		input[inputIndex].Error = 0
	}
	for outputIndex := range layer.outputs {
		var n = &layer.outputs[outputIndex]
		var x = n.Error * n.Prime
		if x == 0 {
			continue
		}
		for inputIndex := range input {
			input[inputIndex].Error += layer.weights.Get(outputIndex, inputIndex) * x
		}
	}

	for outputIndex := range layer.outputs {
		var n = &layer.outputs[outputIndex]
		var x = n.Error * n.Prime
		if x == 0 {
			continue
		}
		layer.bGradients.Add(outputIndex, 0, x*1)
		for inputIndex := range input {
			var inputValue = input[inputIndex].Activation
			if inputValue == 0 {
				continue
			}
			layer.wGradients.Add(outputIndex, inputIndex, x*inputValue)
		}
	}
}

// BackwardPixels accumulates gradients for the input layer. There is no
// previous layer to propagate into.
func (layer *Layer) BackwardPixels(pixels []float32) {
	for outputIndex := range layer.outputs {
		var n = &layer.outputs[outputIndex]
		var x = n.Error * n.Prime
		if x == 0 {
			continue
		}
		layer.bGradients.Add(outputIndex, 0, x*1)
		for inputIndex, inputValue := range pixels {
			if inputValue == 0 {
				continue
			}
			layer.wGradients.Add(outputIndex, inputIndex, x*float64(inputValue))
		}
	}
}

func (layer *Layer) AddGradients(main *Layer) {
	layer.wGradients.AddTo(&main.wGradients)
	layer.bGradients.AddTo(&main.bGradients)
}

func (layer *Layer) ApplyGradients(opt ml.Optimizer) {
	layer.wGradients.Apply(&layer.weights, opt)
	layer.bGradients.Apply(&layer.biases, opt)
}
