package train

import (
	"math/rand"
	"os"
	"testing"

	"github.com/gridl/2018-ComputeFest/internal/idx"
	"github.com/gridl/2018-ComputeFest/internal/ml"
	"github.com/gridl/2018-ComputeFest/internal/mnist"
)

// twoClassSamples is a linearly separable toy set: class 0 lights the
// top rows, class 1 the middle rows.
func twoClassSamples(n int, rnd *rand.Rand) []mnist.Sample {
	var samples = make([]mnist.Sample, n)
	for i := range samples {
		var label = uint8(i % 2)
		var pixels = make([]float32, idx.ImageBytes)
		var base int
		if label == 1 {
			base = 300
		}
		for j := 0; j < 10; j++ {
			pixels[base+j*7] = 0.5 + 0.5*rnd.Float32()
		}
		samples[i] = mnist.Sample{Pixels: pixels, Label: label, Target: mnist.OneHot(label)}
	}
	return samples
}

func TestTrainConverges(t *testing.T) {
	var rnd = rand.New(rand.NewSource(7))
	var samples = twoClassSamples(64, rnd)
	model, err := NewModel(rnd, 16, "cross_entropy")
	if err != nil {
		t.Fatal(err)
	}
	result, err := Train(samples, nil, model, Options{
		Epochs:      30,
		BatchSize:   8,
		Concurrency: 1,
		Optimizer:   ml.NewRMSProp(0.001),
		Seed:        1,
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(result.Epochs) != 30 {
		t.Fatalf("got %d epoch stats", len(result.Epochs))
	}
	var last = result.Epochs[len(result.Epochs)-1]
	if last.TrainAcc < 0.98 {
		t.Errorf("final training accuracy %.4f, want at least 0.98", last.TrainAcc)
	}
	if first := result.Epochs[0]; first.TrainLoss <= last.TrainLoss {
		t.Errorf("loss did not fall: %.4f -> %.4f", first.TrainLoss, last.TrainLoss)
	}

	for _, s := range samples {
		if predicted, _ := model.Predict(s.Pixels); predicted != int(s.Label) {
			t.Fatalf("sample with label %d predicted as %d after training", s.Label, predicted)
		}
	}
}

func TestTrainParallel(t *testing.T) {
	var rnd = rand.New(rand.NewSource(8))
	var samples = twoClassSamples(64, rnd)
	model, err := NewModel(rnd, 16, "cross_entropy")
	if err != nil {
		t.Fatal(err)
	}
	result, err := Train(samples, nil, model, Options{
		Epochs:      30,
		BatchSize:   8,
		Concurrency: 4,
		Optimizer:   ml.NewRMSProp(0.001),
		Seed:        1,
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	var last = result.Epochs[len(result.Epochs)-1]
	if last.TrainAcc < 0.98 {
		t.Errorf("parallel training accuracy %.4f, want at least 0.98", last.TrainAcc)
	}
}

func TestTrainDeterministicSerial(t *testing.T) {
	var run = func() *Model {
		var rnd = rand.New(rand.NewSource(9))
		var samples = twoClassSamples(32, rnd)
		model, err := NewModel(rnd, 8, "cross_entropy")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Train(samples, nil, model, Options{
			Epochs:      3,
			BatchSize:   8,
			Concurrency: 1,
			Optimizer:   ml.NewSGD(0.01),
			Seed:        5,
		}); err != nil {
			t.Fatal(err)
		}
		return model
	}
	var first = run()
	var second = run()
	for i := range first.hidden.weights.Data {
		if first.hidden.weights.Data[i] != second.hidden.weights.Data[i] {
			t.Fatal("same seed produced different weights")
		}
	}
}

func TestTrainCheckpoints(t *testing.T) {
	var rnd = rand.New(rand.NewSource(10))
	var samples = twoClassSamples(48, rnd)
	var validation = twoClassSamples(16, rnd)
	model, err := NewModel(rnd, 8, "cross_entropy")
	if err != nil {
		t.Fatal(err)
	}
	var netDir = t.TempDir()
	result, err := Train(samples, validation, model, Options{
		Epochs:      2,
		BatchSize:   8,
		Concurrency: 2,
		Optimizer:   ml.NewRMSProp(0.001),
		Seed:        3,
		NetDir:      netDir,
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if result.BestEpoch < 1 || result.BestEpoch > 2 {
		t.Errorf("best epoch = %d", result.BestEpoch)
	}
	if result.NetPath == "" {
		t.Fatal("no checkpoint path recorded")
	}
	if _, err := os.Stat(result.NetPath); err != nil {
		t.Fatalf("checkpoint missing: %v", err)
	}
	entries, err := os.ReadDir(netDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("no checkpoints written")
	}

	net, err := LoadNetwork(result.NetPath)
	if err != nil {
		t.Fatalf("LoadNetwork: %v", err)
	}
	if net.Topology.Inputs != idx.ImageBytes || net.Topology.Outputs != idx.NumClasses {
		t.Errorf("checkpoint topology %+v", net.Topology)
	}
	var stat = result.Epochs[0]
	if stat.ValAcc == 0 && stat.ValLoss == 0 {
		t.Error("validation stats were not collected")
	}
}

func TestTrainRejectsBadOptions(t *testing.T) {
	var rnd = rand.New(rand.NewSource(11))
	var samples = twoClassSamples(16, rnd)
	model, err := NewModel(rnd, 4, "cross_entropy")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Train(samples, nil, model, Options{Epochs: 0, BatchSize: 8}); err == nil {
		t.Error("accepted zero epochs")
	}
	if _, err := Train(samples, nil, model, Options{Epochs: 1, BatchSize: 17}); err == nil {
		t.Error("accepted batch larger than the training set")
	}
}
