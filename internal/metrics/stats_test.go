package metrics

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(64, 20*time.Millisecond, 1.2)
	w.Record(64, 12*time.Millisecond, 0.8)
	snap := w.Snapshot()
	if math.Abs(snap.ImagesPerSec-4000) > 1 {
		t.Fatalf("unexpected throughput %.2f", snap.ImagesPerSec)
	}
	if math.Abs(snap.AvgStepMS-16) > 1e-9 {
		t.Fatalf("unexpected step time %.2f", snap.AvgStepMS)
	}
	if snap.LastLoss != 0.8 {
		t.Fatalf("expected last loss 0.8, got %.2f", snap.LastLoss)
	}
	if w.samples != 0 || w.steps != 0 {
		t.Fatalf("window was not reset")
	}
}

func TestWindowEmpty(t *testing.T) {
	var w Window
	snap := w.Snapshot()
	if snap.ImagesPerSec != 0 || snap.AvgStepMS != 0 {
		t.Fatalf("empty window produced %+v", snap)
	}
}

func TestConfusion(t *testing.T) {
	c := NewConfusion(3)
	c.Add(0, 0)
	c.Add(0, 0)
	c.Add(0, 1)
	c.Add(1, 1)
	c.Add(2, 1)
	c.Add(2, 2)

	if got := c.Total(); got != 6 {
		t.Fatalf("total = %d", got)
	}
	if got := c.Correct(); got != 4 {
		t.Fatalf("correct = %d", got)
	}
	if got := c.Accuracy(); math.Abs(got-4.0/6) > 1e-12 {
		t.Fatalf("accuracy = %v", got)
	}
	if got := c.Recall(0); math.Abs(got-2.0/3) > 1e-12 {
		t.Fatalf("recall(0) = %v", got)
	}
	if got := c.Precision(1); math.Abs(got-1.0/3) > 1e-12 {
		t.Fatalf("precision(1) = %v", got)
	}
}

func TestConfusionEmptyClass(t *testing.T) {
	c := NewConfusion(2)
	if c.Accuracy() != 0 || c.Recall(1) != 0 || c.Precision(1) != 0 {
		t.Fatal("empty matrix should score zero everywhere")
	}
}

func TestConfusionString(t *testing.T) {
	c := NewConfusion(2)
	c.Add(0, 0)
	c.Add(1, 0)
	var s = c.String()
	if lines := strings.Count(s, "\n"); lines != 3 {
		t.Fatalf("rendered %d lines: %q", lines, s)
	}
	if !strings.Contains(s, "recall") {
		t.Fatalf("missing recall column: %q", s)
	}
}
