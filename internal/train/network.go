package train

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gridl/2018-ComputeFest/internal/ml"
)

type Topology struct {
	Inputs        uint32
	Outputs       uint32
	HiddenNeurons []uint32
}

func NewTopology(inputs, outputs uint32, hiddenNeurons []uint32) Topology {
	return Topology{
		Inputs:        inputs,
		Outputs:       outputs,
		HiddenNeurons: hiddenNeurons,
	}
}

func (t *Topology) LayerSize() int {
	return len(t.HiddenNeurons) + 1
}

// Network is the serialized form of a trained model.
type Network struct {
	Id       uint32
	Topology Topology
	Weights  []ml.Matrix
	Biases   []ml.Matrix
}

// ParamCount is the number of stored weights and biases.
func (n *Network) ParamCount() int {
	var count int
	for i := range n.Weights {
		count += len(n.Weights[i].Data) + len(n.Biases[i].Data)
	}
	return count
}

// Binary specification for the network file:
// - All the data is stored in little-endian layout
// - All the matrices are written in column-major
// - The magic number/version consists of 4 bytes:
//   - 77 (which is the ASCII code for M), uint8
//   - 78 (which is the ASCII code for N), uint8
//   - 1 The major part of the current version number, uint8
//   - 0 The minor part of the current version number, uint8
//
// - 4 bytes (uint32) to denote the network ID
// - 4 bytes (uint32) to denote input size
// - 4 bytes (uint32) to denote output size
// - 4 bytes (uint32) to represent the number of hidden layers
// - 4 bytes (uint32) for the size of each hidden layer
// - All weights for a layer, followed by all the biases of the same
//   layer, as float32
// - Other layers follow just like the above point
func (n *Network) Save(file string) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := []byte{77, 78, 1, 0}
	_, err = f.Write(buf)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(buf, n.Id)
	_, err = f.Write(buf)
	if err != nil {
		return err
	}

	buf = make([]byte, 3*4+4*len(n.Topology.HiddenNeurons))
	binary.LittleEndian.PutUint32(buf[0:], n.Topology.Inputs)
	binary.LittleEndian.PutUint32(buf[4:], n.Topology.Outputs)
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(n.Topology.HiddenNeurons)))
	for i := 0; i < len(n.Topology.HiddenNeurons); i++ {
		binary.LittleEndian.PutUint32(buf[12+4*i:], n.Topology.HiddenNeurons[i])
	}
	_, err = f.Write(buf)
	if err != nil {
		return err
	}

	var layerSize = n.Topology.LayerSize()
	for i := 0; i < layerSize; i++ {
		err = writeSlice(f, n.Weights[i].Data)
		if err != nil {
			return err
		}
		err = writeSlice(f, n.Biases[i].Data)
		if err != nil {
			return err
		}
	}

	return nil
}

// LoadNetwork reads a network saved with Save.
func LoadNetwork(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, 4)
	_, err = io.ReadFull(f, buf)
	if err != nil {
		return nil, err
	}
	if buf[0] != 77 || buf[1] != 78 {
		return nil, fmt.Errorf("train: %v is not a network file", path)
	}
	if buf[2] != 1 || buf[3] != 0 {
		return nil, fmt.Errorf("train: unsupported network format version %v.%v", buf[2], buf[3])
	}

	_, err = io.ReadFull(f, buf)
	if err != nil {
		return nil, err
	}
	id := binary.LittleEndian.Uint32(buf)

	buf = make([]byte, 12)
	_, err = io.ReadFull(f, buf)
	if err != nil {
		return nil, err
	}
	inputs := binary.LittleEndian.Uint32(buf[:4])
	outputs := binary.LittleEndian.Uint32(buf[4:8])
	layers := binary.LittleEndian.Uint32(buf[8:])
	if layers == 0 || layers > 8 {
		return nil, fmt.Errorf("train: implausible hidden layer count %v", layers)
	}

	buf = make([]byte, 4*layers)
	_, err = io.ReadFull(f, buf)
	if err != nil {
		return nil, err
	}
	neurons := make([]uint32, layers)
	for i := uint32(0); i < layers; i++ {
		neurons[i] = binary.LittleEndian.Uint32(buf[i*4 : (i+1)*4])
	}

	net := &Network{
		Topology: NewTopology(inputs, outputs, neurons),
		Id:       id,
	}
	net.Weights = make([]ml.Matrix, len(neurons)+1)
	net.Biases = make([]ml.Matrix, len(neurons)+1)

	inputSize := int(inputs)
	for i := 0; i < len(neurons)+1; i++ {
		var outputSize int
		if i == len(neurons) {
			outputSize = int(outputs)
		} else {
			outputSize = int(neurons[i])
		}
		weights, err := readSlice(f, outputSize*inputSize)
		if err != nil {
			return nil, err
		}
		net.Weights[i] = ml.Matrix{Data: weights, Rows: outputSize, Cols: inputSize}
		inputSize = outputSize

		biases, err := readSlice(f, outputSize)
		if err != nil {
			return nil, err
		}
		net.Biases[i] = ml.Matrix{Data: biases, Rows: outputSize, Cols: 1}
	}
	return net, nil
}

func writeSlice(f io.Writer, data []float64) error {
	buf := make([]byte, 4)
	for j := range data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(data[j])))
		_, err := f.Write(buf)
		if err != nil {
			return err
		}
	}
	return nil
}

func readSlice(f io.Reader, size int) ([]float64, error) {
	buf := make([]byte, 4*size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	data := make([]float64, size)
	for j := range data {
		data[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:])))
	}
	return data, nil
}
