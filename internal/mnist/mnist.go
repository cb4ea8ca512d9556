// Package mnist loads the handwritten digit corpus into memory and
// prepares it the way the classifier consumes it: pixels scaled to
// [0,1] and labels expanded to one-hot targets.
package mnist

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/gridl/2018-ComputeFest/internal/idx"
	"golang.org/x/sync/errgroup"
)

// Base names of the four distribution files. Load accepts both the
// gzipped archives as downloaded and their decompressed forms.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

// Sample is one digit ready for the network.
type Sample struct {
	Pixels []float32
	Label  uint8
	Target [idx.NumClasses]float32
}

// Dataset is the standard train/test split of the corpus.
type Dataset struct {
	Train []Sample
	Test  []Sample
}

// Load reads both splits from dir. The splits are independent, so they
// load concurrently.
func Load(dir string) (*Dataset, error) {
	var ds = &Dataset{}
	var g errgroup.Group
	g.Go(func() error {
		var err error
		ds.Train, err = LoadSplit(dir, TrainImagesFile, TrainLabelsFile)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Test, err = LoadSplit(dir, TestImagesFile, TestLabelsFile)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadSplit reads one images/labels pair from dir.
func LoadSplit(dir, imagesName, labelsName string) ([]Sample, error) {
	imagesPath, err := locate(dir, imagesName)
	if err != nil {
		return nil, err
	}
	labelsPath, err := locate(dir, labelsName)
	if err != nil {
		return nil, err
	}
	images, err := idx.ReadImagesFile(imagesPath)
	if err != nil {
		return nil, err
	}
	labels, err := idx.ReadLabelsFile(labelsPath)
	if err != nil {
		return nil, err
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("mnist: %v has %v images but %v has %v labels",
			imagesName, len(images), labelsName, len(labels))
	}
	return buildSamples(images, labels), nil
}

// locate prefers the gzipped archive since that is what Fetch stores.
func locate(dir, name string) (string, error) {
	for _, path := range []string{
		filepath.Join(dir, name+".gz"),
		filepath.Join(dir, name),
	} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("mnist: %v not found in %v (run fetch first)", name, dir)
}

func buildSamples(images []idx.Image, labels []uint8) []Sample {
	var samples = make([]Sample, len(images))
	var wg = &sync.WaitGroup{}
	var chunk = (len(samples) + runtime.NumCPU() - 1) / runtime.NumCPU()
	for begin := 0; begin < len(samples); begin += chunk {
		var end = begin + chunk
		if end > len(samples) {
			end = len(samples)
		}
		wg.Add(1)
		go func(begin, end int) {
			defer wg.Done()
			for i := begin; i < end; i++ {
				samples[i] = Sample{
					Pixels: Normalize(images[i]),
					Label:  labels[i],
					Target: OneHot(labels[i]),
				}
			}
		}(begin, end)
	}
	wg.Wait()
	return samples
}

// Normalize scales raw pixel bytes to [0,1].
func Normalize(img idx.Image) []float32 {
	var pixels = make([]float32, len(img))
	for i, b := range img {
		pixels[i] = float32(b) / 255
	}
	return pixels
}

// OneHot expands a class label into a target vector.
func OneHot(label uint8) [idx.NumClasses]float32 {
	var target [idx.NumClasses]float32
	target[label] = 1
	return target
}

// Split shuffles samples with the given seed and carves the validation
// set off the front. A fraction of zero returns everything as training.
func Split(samples []Sample, valFraction float64, seed int64) (training, validation []Sample) {
	var rnd = rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
	var n = int(float64(len(samples)) * valFraction)
	return samples[n:], samples[:n]
}
