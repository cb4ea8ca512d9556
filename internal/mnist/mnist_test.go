package mnist

import (
	"compress/gzip"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gridl/2018-ComputeFest/internal/idx"
)

func TestNormalize(t *testing.T) {
	var img idx.Image
	img[0] = 0
	img[1] = 255
	img[2] = 51
	var pixels = Normalize(img)
	if len(pixels) != idx.ImageBytes {
		t.Fatalf("got %d pixels", len(pixels))
	}
	if pixels[0] != 0 || pixels[1] != 1 {
		t.Errorf("extremes map to %v and %v", pixels[0], pixels[1])
	}
	if math.Abs(float64(pixels[2])-51.0/255) > 1e-7 {
		t.Errorf("pixel 51 maps to %v", pixels[2])
	}
}

func TestOneHot(t *testing.T) {
	var target = OneHot(7)
	for i, v := range target {
		var want float32
		if i == 7 {
			want = 1
		}
		if v != want {
			t.Errorf("target[%d] = %v, want %v", i, v, want)
		}
	}
}

func makeSamples(n int) []Sample {
	var samples = make([]Sample, n)
	for i := range samples {
		samples[i].Label = uint8(i % idx.NumClasses)
	}
	return samples
}

func TestSplit(t *testing.T) {
	var training, validation = Split(makeSamples(100), 0.1, 42)
	if len(validation) != 10 || len(training) != 90 {
		t.Fatalf("split sizes %d/%d", len(training), len(validation))
	}

	var counts [idx.NumClasses]int
	for _, s := range training {
		counts[s.Label]++
	}
	for _, s := range validation {
		counts[s.Label]++
	}
	for label, n := range counts {
		if n != 10 {
			t.Errorf("label %d appears %d times after split", label, n)
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	var _, first = Split(makeSamples(100), 0.2, 1)
	var _, second = Split(makeSamples(100), 0.2, 1)
	for i := range first {
		if first[i].Label != second[i].Label {
			t.Fatal("same seed produced different splits")
		}
	}
}

func TestSplitZeroFraction(t *testing.T) {
	var training, validation = Split(makeSamples(50), 0, 1)
	if len(validation) != 0 || len(training) != 50 {
		t.Fatalf("split sizes %d/%d", len(training), len(validation))
	}
}

// writeSplit stores a synthetic images/labels pair the way Fetch would.
func writeSplit(t *testing.T, dir, imagesName, labelsName string, labels []byte) {
	t.Helper()
	var images = make([]idx.Image, len(labels))
	for i := range images {
		images[i][0] = byte(i)
		images[i][idx.ImageBytes-1] = 255
	}

	var writeGz = func(name string, write func(w *gzip.Writer) error) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		var zw = gzip.NewWriter(f)
		if err := write(zw); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
	}
	writeGz(imagesName+".gz", func(w *gzip.Writer) error { return idx.WriteImages(w, images) })
	writeGz(labelsName+".gz", func(w *gzip.Writer) error { return idx.WriteLabels(w, labels) })
}

func TestLoad(t *testing.T) {
	var dir = t.TempDir()
	writeSplit(t, dir, TrainImagesFile, TrainLabelsFile, []byte{3, 1, 4, 1, 5})
	writeSplit(t, dir, TestImagesFile, TestLabelsFile, []byte{9, 2})

	ds, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Train) != 5 || len(ds.Test) != 2 {
		t.Fatalf("loaded %d/%d samples", len(ds.Train), len(ds.Test))
	}

	var s = ds.Train[2]
	if s.Label != 4 {
		t.Errorf("train[2] label = %d", s.Label)
	}
	if s.Pixels[0] != 2.0/255 || s.Pixels[idx.ImageBytes-1] != 1 {
		t.Errorf("train[2] pixels not normalized: %v %v", s.Pixels[0], s.Pixels[idx.ImageBytes-1])
	}
	if s.Target[4] != 1 {
		t.Error("train[2] target not one-hot")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load succeeded on an empty directory")
	}
}

func TestLoadSplitCountMismatch(t *testing.T) {
	var dir = t.TempDir()
	writeSplit(t, dir, TrainImagesFile, TrainLabelsFile, []byte{1, 2, 3})

	// Overwrite labels with a shorter run.
	f, err := os.Create(filepath.Join(dir, TrainLabelsFile+".gz"))
	if err != nil {
		t.Fatal(err)
	}
	var zw = gzip.NewWriter(f)
	if err := idx.WriteLabels(zw, []byte{1, 2}); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	f.Close()

	if _, err := LoadSplit(dir, TrainImagesFile, TrainLabelsFile); err == nil {
		t.Fatal("LoadSplit accepted mismatched counts")
	}
}

func TestPixelsFromImage(t *testing.T) {
	// 56x56 with the left half white: downsampling keeps the split.
	var img = image.NewGray(image.Rect(0, 0, 56, 56))
	for y := 0; y < 56; y++ {
		for x := 0; x < 28; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	pixels, err := PixelsFromImage(img, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(pixels) != idx.ImageBytes {
		t.Fatalf("got %d pixels", len(pixels))
	}
	if pixels[0] != 1 {
		t.Errorf("left half = %v, want 1", pixels[0])
	}
	if pixels[idx.ImageSize-1] != 0 {
		t.Errorf("right half = %v, want 0", pixels[idx.ImageSize-1])
	}

	inverted, err := PixelsFromImage(img, true)
	if err != nil {
		t.Fatal(err)
	}
	if inverted[0] != 0 || inverted[idx.ImageSize-1] != 1 {
		t.Errorf("invert gave %v and %v", inverted[0], inverted[idx.ImageSize-1])
	}
}

func TestPixelsFromImageEmpty(t *testing.T) {
	var img = image.NewGray(image.Rect(0, 0, 0, 0))
	if _, err := PixelsFromImage(img, false); err == nil {
		t.Fatal("accepted an empty image")
	}
}

func TestRender(t *testing.T) {
	var pixels = make([]float32, idx.ImageBytes)
	pixels[0] = 1
	var art = Render(pixels)
	var lines = strings.Split(strings.TrimRight(art, "\n"), "\n")
	if len(lines) != idx.ImageSize {
		t.Fatalf("rendered %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "@@") {
		t.Errorf("bright pixel rendered as %q", lines[0][:2])
	}
	if !strings.HasPrefix(lines[1], "  ") {
		t.Errorf("dark pixel rendered as %q", lines[1][:2])
	}
}
