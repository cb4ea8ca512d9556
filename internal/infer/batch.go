package infer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/gridl/2018-ComputeFest/internal/idx"
	"github.com/gridl/2018-ComputeFest/internal/metrics"
	"github.com/gridl/2018-ComputeFest/internal/mnist"
	"github.com/gridl/2018-ComputeFest/internal/train"
)

// EvaluateBatch scores a whole dataset as dense matrix products and
// tallies the predictions into a confusion matrix. This is the eval
// command's fast path; it must agree with Classifier.Predict on every
// sample.
func EvaluateBatch(n *train.Network, samples []mnist.Sample, batchSize int) (*metrics.Confusion, error) {
	if len(n.Topology.HiddenNeurons) != 1 {
		return nil, fmt.Errorf("infer: want exactly one hidden layer, network has %v",
			len(n.Topology.HiddenNeurons))
	}
	if n.Topology.Inputs != idx.ImageBytes || n.Topology.Outputs != idx.NumClasses {
		return nil, fmt.Errorf("infer: network shape %vx%v is not a digit classifier",
			n.Topology.Inputs, n.Topology.Outputs)
	}
	if batchSize <= 0 {
		batchSize = 256
	}
	var inputSize = int(n.Topology.Inputs)
	var hiddenSize = int(n.Topology.HiddenNeurons[0])
	var outputSize = int(n.Topology.Outputs)

	// Column-major layer data reads as the transposed weight matrix in
	// gonum's row-major Dense, which is the shape the products need.
	var hiddenT = mat.NewDense(inputSize, hiddenSize, n.Weights[0].Data)
	var outputT = mat.NewDense(hiddenSize, outputSize, n.Weights[1].Data)

	var confusion = metrics.NewConfusion(outputSize)
	for begin := 0; begin < len(samples); begin += batchSize {
		var end = begin + batchSize
		if end > len(samples) {
			end = len(samples)
		}
		var batch = samples[begin:end]
		var rows = len(batch)

		var inputs = mat.NewDense(rows, inputSize, nil)
		for r, sample := range batch {
			if len(sample.Pixels) != inputSize {
				return nil, fmt.Errorf("infer: sample has %v pixels, network wants %v",
					len(sample.Pixels), inputSize)
			}
			var row = inputs.RawRowView(r)
			for i, pixel := range sample.Pixels {
				row[i] = float64(pixel)
			}
		}

		var hidden mat.Dense
		hidden.Mul(inputs, hiddenT)
		var raw = hidden.RawMatrix()
		for r := 0; r < rows; r++ {
			var row = raw.Data[r*raw.Stride : r*raw.Stride+hiddenSize]
			for j := range row {
				row[j] += n.Biases[0].Data[j]
				if row[j] < 0 {
					row[j] = 0
				}
			}
		}

		var scores mat.Dense
		scores.Mul(&hidden, outputT)
		var rawScores = scores.RawMatrix()
		for r := 0; r < rows; r++ {
			var row = rawScores.Data[r*rawScores.Stride : r*rawScores.Stride+outputSize]
			floats.Add(row, n.Biases[1].Data)
			confusion.Add(int(batch[r].Label), floats.MaxIdx(row))
		}
	}
	return confusion, nil
}

// Summary describes a stored network for the inspect command.
func Summary(n *train.Network) string {
	var s = fmt.Sprintf("network id=%v inputs=%v outputs=%v\n",
		n.Id, n.Topology.Inputs, n.Topology.Outputs)
	var inputSize = n.Topology.Inputs
	for i, neurons := range n.Topology.HiddenNeurons {
		s += fmt.Sprintf("layer %v: %v -> %v (relu)\n", i+1, inputSize, neurons)
		inputSize = neurons
	}
	s += fmt.Sprintf("layer %v: %v -> %v (scores)\n",
		n.Topology.LayerSize(), inputSize, n.Topology.Outputs)
	s += fmt.Sprintf("parameters: %v (%v on disk)\n",
		n.ParamCount(), ByteCount(4*n.ParamCount()))
	return s
}

// ByteCount renders a size with a binary unit prefix.
func ByteCount(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	var div, exp = unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
