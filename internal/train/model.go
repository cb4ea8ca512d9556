package train

import (
	"fmt"
	"math/rand"

	"github.com/gridl/2018-ComputeFest/internal/idx"
	"github.com/gridl/2018-ComputeFest/internal/ml"
	"github.com/gridl/2018-ComputeFest/internal/mnist"
)

// Model is the two-layer dense classifier: a ReLU hidden layer over the
// flattened image and a class score layer whose cost turns the scores
// into probabilities.
type Model struct {
	hidden *Layer
	output *Layer
	cost   ml.IModelCost

	outBuf    []float64
	deltaBuf  []float64
	targetBuf []float64
}

// NewModel builds the classifier with the cost's natural output layer.
// Cross-entropy applies softmax itself, so it reads raw logits; squared
// error pairs with sigmoid outputs.
func NewModel(rnd *rand.Rand, hiddenSize int, lossName string) (*Model, error) {
	switch lossName {
	case "cross_entropy":
		return newModel(rnd, hiddenSize, &ml.IdentityActivation{}, &ml.CrossEntropyCost{}), nil
	case "mse":
		return newModel(rnd, hiddenSize, &ml.SigmoidActivation{}, &ml.MSECost{}), nil
	}
	return nil, fmt.Errorf("train: unknown loss %q", lossName)
}

func newModel(rnd *rand.Rand, hiddenSize int, outputFn ml.IActivationFn, cost ml.IModelCost) *Model {
	return &Model{
		hidden: NewLayer(
			idx.ImageBytes,
			make([]Neuron, hiddenSize),
			&ml.ReLuActivation{}).
			InitWeightsReLU(rnd),
		output: NewLayer(
			hiddenSize,
			make([]Neuron, idx.NumClasses),
			outputFn).
			InitWeightsSigmoid(rnd),
		cost:      cost,
		outBuf:    make([]float64, idx.NumClasses),
		deltaBuf:  make([]float64, idx.NumClasses),
		targetBuf: make([]float64, idx.NumClasses),
	}
}

func (m *Model) ThreadCopy() *Model {
	return &Model{
		hidden:    m.hidden.ThreadCopy(),
		output:    m.output.ThreadCopy(),
		cost:      m.cost,
		outBuf:    make([]float64, idx.NumClasses),
		deltaBuf:  make([]float64, idx.NumClasses),
		targetBuf: make([]float64, idx.NumClasses),
	}
}

func (m *Model) HiddenSize() int {
	return len(m.hidden.outputs)
}

func (m *Model) forward(pixels []float32) []float64 {
	m.hidden.ForwardPixels(pixels)
	m.output.Forward(m.hidden.outputs)
	for i := range m.output.outputs {
		m.outBuf[i] = m.output.outputs[i].Activation
	}
	return m.outBuf
}

func (m *Model) target(sample *mnist.Sample) []float64 {
	for i, v := range sample.Target {
		m.targetBuf[i] = float64(v)
	}
	return m.targetBuf
}

// CalcCost runs a sample forward and scores it without touching
// gradients.
func (m *Model) CalcCost(sample *mnist.Sample) (cost float64, correct bool) {
	var output = m.forward(sample.Pixels)
	cost = m.cost.Cost(output, m.target(sample))
	correct = ml.ArgMax(output) == int(sample.Label)
	return cost, correct
}

// Predict returns the most likely class and the softmax-normalized
// class scores.
func (m *Model) Predict(pixels []float32) (int, []float64) {
	var output = m.forward(pixels)
	var probs = ml.Softmax(output)
	return ml.ArgMax(output), probs
}

// Train runs one sample forward and backward, accumulating gradients
// in this model's accumulators.
func (m *Model) Train(sample *mnist.Sample) (cost float64, correct bool) {
	var output = m.forward(sample.Pixels)
	var target = m.target(sample)
	cost = m.cost.Cost(output, target)
	correct = ml.ArgMax(output) == int(sample.Label)

	m.cost.Deltas(output, target, m.deltaBuf)
	for i := range m.output.outputs {
		m.output.outputs[i].Error = m.deltaBuf[i]
	}
	// back propagation
	m.output.Backward(m.hidden.outputs)
	m.hidden.BackwardPixels(sample.Pixels)
	return cost, correct
}

func (m *Model) AddGradients(mainModel *Model) {
	if m == mainModel {
		return
	}
	m.hidden.AddGradients(mainModel.hidden)
	m.output.AddGradients(mainModel.output)
}

func (m *Model) ApplyGradients(opt ml.Optimizer) {
	m.hidden.ApplyGradients(opt)
	m.output.ApplyGradients(opt)
}

// Load replaces the weights with a saved network of the same shape.
func (m *Model) Load(filepath string) error {
	n, err := LoadNetwork(filepath)
	if err != nil {
		return err
	}
	if n.Topology.Inputs != idx.ImageBytes ||
		n.Topology.Outputs != idx.NumClasses ||
		len(n.Topology.HiddenNeurons) != 1 ||
		int(n.Topology.HiddenNeurons[0]) != m.HiddenSize() {
		return fmt.Errorf("train: network %v does not fit model with %v hidden neurons",
			n.Topology, m.HiddenSize())
	}
	m.hidden.weights = n.Weights[0]
	m.hidden.biases = n.Biases[0]
	m.output.weights = n.Weights[1]
	m.output.biases = n.Biases[1]
	return nil
}

// Network exposes the weights in their serializable form. The matrices
// are shared, not copied.
func (m *Model) Network() *Network {
	return &Network{
		Topology: Topology{
			Inputs:        idx.ImageBytes,
			HiddenNeurons: []uint32{uint32(m.HiddenSize())},
			Outputs:       idx.NumClasses,
		},
		Weights: []ml.Matrix{m.hidden.weights, m.output.weights},
		Biases:  []ml.Matrix{m.hidden.biases, m.output.biases},
	}
}

func (m *Model) Save(filepath string) error {
	return m.Network().Save(filepath)
}
