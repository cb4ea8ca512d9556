// Package infer runs trained networks outside the training loop. The
// classifier keeps weights as flat float32 slabs laid out input-major,
// so scoring one image walks only the lit inputs.
package infer

import (
	"fmt"
	"math"

	"github.com/gridl/2018-ComputeFest/internal/idx"
	"github.com/gridl/2018-ComputeFest/internal/train"
)

type Classifier struct {
	inputSize  int
	hiddenSize int
	outputSize int

	hiddenWeights []float32 // [input*hiddenSize + hidden]
	hiddenBiases  []float32
	outputWeights []float32 // [hidden*outputSize + output]
	outputBiases  []float32
}

// NewClassifier converts a trained network into its inference form.
func NewClassifier(n *train.Network) (*Classifier, error) {
	if len(n.Topology.HiddenNeurons) != 1 {
		return nil, fmt.Errorf("infer: want exactly one hidden layer, network has %v",
			len(n.Topology.HiddenNeurons))
	}
	if n.Topology.Inputs != idx.ImageBytes || n.Topology.Outputs != idx.NumClasses {
		return nil, fmt.Errorf("infer: network shape %vx%v is not a digit classifier",
			n.Topology.Inputs, n.Topology.Outputs)
	}
	var c = &Classifier{
		inputSize:  int(n.Topology.Inputs),
		hiddenSize: int(n.Topology.HiddenNeurons[0]),
		outputSize: int(n.Topology.Outputs),
	}
	// Column-major matrix data is already input-major.
	c.hiddenWeights = toFloat32(n.Weights[0].Data)
	c.hiddenBiases = toFloat32(n.Biases[0].Data)
	c.outputWeights = toFloat32(n.Weights[1].Data)
	c.outputBiases = toFloat32(n.Biases[1].Data)
	return c, nil
}

// LoadClassifier reads a checkpoint from disk.
func LoadClassifier(path string) (*Classifier, error) {
	n, err := train.LoadNetwork(path)
	if err != nil {
		return nil, err
	}
	return NewClassifier(n)
}

func (c *Classifier) HiddenSize() int { return c.hiddenSize }

// Predict scores one image and returns the most likely digit with the
// softmax-normalized class scores. Softmax is monotone, so the digit is
// the same whichever output activation the network was trained with.
func (c *Classifier) Predict(pixels []float32) (int, [idx.NumClasses]float32) {
	var hidden = make([]float32, c.hiddenSize)
	copy(hidden, c.hiddenBiases)
	for i, pixel := range pixels {
		if pixel == 0 {
			continue
		}
		var row = c.hiddenWeights[i*c.hiddenSize : (i+1)*c.hiddenSize]
		for j := range row {
			hidden[j] += pixel * row[j]
		}
	}

	var scores [idx.NumClasses]float64
	for o := 0; o < c.outputSize; o++ {
		scores[o] = float64(c.outputBiases[o])
	}
	for j, activation := range hidden {
		if activation <= 0 {
			continue
		}
		var row = c.outputWeights[j*c.outputSize : (j+1)*c.outputSize]
		for o := range row {
			scores[o] += float64(activation) * float64(row[o])
		}
	}

	var best = 0
	var maxScore = scores[0]
	for o := 1; o < len(scores); o++ {
		if scores[o] > maxScore {
			maxScore = scores[o]
			best = o
		}
	}

	var probs [idx.NumClasses]float32
	var sum float64
	for o, s := range scores {
		var e = math.Exp(s - maxScore)
		probs[o] = float32(e)
		sum += e
	}
	for o := range probs {
		probs[o] = float32(float64(probs[o]) / sum)
	}
	return best, probs
}

func toFloat32(data []float64) []float32 {
	var out = make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v)
	}
	return out
}
