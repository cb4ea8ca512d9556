package train

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridl/2018-ComputeFest/internal/metrics"
	"github.com/gridl/2018-ComputeFest/internal/ml"
	"github.com/gridl/2018-ComputeFest/internal/mnist"
)

// Options control one training run.
type Options struct {
	Epochs      int
	BatchSize   int
	Concurrency int
	Optimizer   ml.Optimizer
	Seed        int64

	// NetDir receives one checkpoint per epoch. Empty disables saving.
	NetDir string

	// LogEvery prints a throughput line every that many batches.
	// Zero logs only per-epoch summaries.
	LogEvery int
}

// Train fits the model with parallel mini-batch gradient descent.
// Worker models share the weight matrices and own their gradient
// accumulators, so batches run lock-free and merge afterwards.
func Train(training, validation []mnist.Sample, mainModel *Model, opts Options) (*Result, error) {
	if opts.Epochs <= 0 {
		return nil, fmt.Errorf("train: epochs must be positive, got %v", opts.Epochs)
	}
	if opts.BatchSize <= 0 || opts.BatchSize > len(training) {
		return nil, fmt.Errorf("train: batch size %v does not fit training set of %v samples",
			opts.BatchSize, len(training))
	}
	var optimizer = opts.Optimizer
	if optimizer == nil {
		optimizer = ml.NewRMSProp(0.001)
	}
	var concurrency = opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	log.Println("train started")
	defer log.Println("train finished")

	if opts.NetDir != "" {
		if err := os.MkdirAll(opts.NetDir, os.ModePerm); err != nil {
			return nil, err
		}
	}

	var models = make([]*Model, concurrency)
	models[0] = mainModel
	for i := 1; i < len(models); i++ {
		models[i] = mainModel.ThreadCopy()
	}

	var rnd = rand.New(rand.NewSource(opts.Seed))
	var result = &Result{}
	var window metrics.Window
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		var started = time.Now()
		shuffle(rnd, training)

		var epochCost float64
		var epochCorrect, batches int
		for i := 0; i+opts.BatchSize <= len(training); i += opts.BatchSize {
			var batchStarted = time.Now()
			var batch = training[i : i+opts.BatchSize]
			cost, correct := trainBatch(batch, models)
			applyGradients(models, optimizer)

			epochCost += cost
			epochCorrect += correct
			batches++
			window.Record(len(batch), time.Since(batchStarted), cost/float64(len(batch)))
			if opts.LogEvery > 0 && batches%opts.LogEvery == 0 {
				var snap = window.Snapshot()
				log.Printf("epoch %v batch %v: loss=%.4f %.0f images/sec",
					epoch, batches, snap.LastLoss, snap.ImagesPerSec)
			}
		}

		var seen = float64(batches * opts.BatchSize)
		var stat = EpochStat{
			Epoch:     epoch,
			TrainLoss: epochCost / seen,
			TrainAcc:  float64(epochCorrect) / seen,
			Elapsed:   time.Since(started).Round(time.Millisecond),
		}

		if len(validation) > 0 {
			stat.ValLoss, stat.ValAcc = evaluate(validation, models)
			log.Printf("epoch %v/%v: loss=%.4f acc=%.4f val_loss=%.4f val_acc=%.4f elapsed=%v",
				epoch, opts.Epochs, stat.TrainLoss, stat.TrainAcc, stat.ValLoss, stat.ValAcc, stat.Elapsed)
		} else {
			log.Printf("epoch %v/%v: loss=%.4f acc=%.4f elapsed=%v",
				epoch, opts.Epochs, stat.TrainLoss, stat.TrainAcc, stat.Elapsed)
		}
		result.Epochs = append(result.Epochs, stat)

		if opts.NetDir != "" {
			var refCost = stat.ValLoss
			if len(validation) == 0 {
				refCost = stat.TrainLoss
			}
			var netPath = buildNetPath(opts.NetDir, epoch, refCost)
			var net = models[0].Network()
			net.Id = uint32(epoch)
			if err := net.Save(netPath); err != nil {
				return nil, err
			}
			if len(validation) == 0 || result.BestEpoch == 0 || stat.ValLoss < result.BestValCost {
				result.NetPath = netPath
			}
		}
		if len(validation) > 0 &&
			(result.BestEpoch == 0 || stat.ValLoss < result.BestValCost) {
			result.BestEpoch = epoch
			result.BestValCost = stat.ValLoss
		}
	}

	return result, nil
}

func shuffle(rnd *rand.Rand, training []mnist.Sample) {
	rnd.Shuffle(len(training), func(i, j int) {
		training[i], training[j] = training[j], training[i]
	})
}

// trainBatch races the worker models over an atomic sample index and
// returns the summed cost and correct predictions.
func trainBatch(samples []mnist.Sample, models []*Model) (float64, int) {
	var index int32 = -1
	var wg = &sync.WaitGroup{}
	var mu = &sync.Mutex{}
	var totalCost float64
	var totalCorrect int
	for i := range models {
		wg.Add(1)
		go func(m *Model) {
			defer wg.Done()
			var localCost float64
			var localCorrect int
			for {
				var i = int(atomic.AddInt32(&index, 1))
				if i >= len(samples) {
					break
				}
				cost, correct := m.Train(&samples[i])
				localCost += cost
				if correct {
					localCorrect++
				}
			}
			mu.Lock()
			totalCost += localCost
			totalCorrect += localCorrect
			mu.Unlock()
		}(models[i])
	}
	wg.Wait()
	return totalCost, totalCorrect
}

func applyGradients(models []*Model, optimizer ml.Optimizer) {
	for i := 1; i < len(models); i++ {
		models[i].AddGradients(models[0])
	}
	models[0].ApplyGradients(optimizer)
}

// evaluate scores samples without training, spreading the work over the
// same worker models.
func evaluate(samples []mnist.Sample, models []*Model) (avgCost, accuracy float64) {
	var index int32 = -1
	var wg = &sync.WaitGroup{}
	var mu = &sync.Mutex{}
	var totalCost float64
	var totalCorrect int
	for i := range models {
		wg.Add(1)
		go func(m *Model) {
			defer wg.Done()
			var localCost float64
			var localCorrect int
			for {
				var i = int(atomic.AddInt32(&index, 1))
				if i >= len(samples) {
					break
				}
				cost, correct := m.CalcCost(&samples[i])
				localCost += cost
				if correct {
					localCorrect++
				}
			}
			mu.Lock()
			totalCost += localCost
			totalCorrect += localCorrect
			mu.Unlock()
		}(models[i])
	}
	wg.Wait()
	return totalCost / float64(len(samples)), float64(totalCorrect) / float64(len(samples))
}

func buildNetPath(netFolderPath string, epoch int, validationCost float64) string {
	var valCostInt = int(100000 * validationCost)
	return filepath.Join(netFolderPath, fmt.Sprintf("n-%03d-%v.nn", epoch, valCostInt))
}
