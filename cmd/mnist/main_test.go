package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gridl/2018-ComputeFest/internal/config"
	"github.com/gridl/2018-ComputeFest/internal/runs"
	"github.com/gridl/2018-ComputeFest/internal/train"
)

func TestRootCommand(t *testing.T) {
	var cmd = newRootCmd()
	if cmd.PersistentFlags().Lookup("data-dir") == nil {
		t.Error("missing global flag: data-dir")
	}
	for _, want := range []string{"fetch", "train", "eval", "predict", "show", "inspect", "runs"} {
		var found = false
		for _, sub := range cmd.Commands() {
			if sub.Name() == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand: %v", want)
		}
	}
}

// execute runs the CLI the way main does, capturing its output.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	var cmd = newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return buf.String()
}

func seedRun(t *testing.T, dir string) runs.Record {
	t.Helper()
	var record = runs.NewRecord(*config.Default())
	record.StartedAt = time.Date(2018, 1, 8, 10, 0, 0, 0, time.UTC)
	record.FinishedAt = record.StartedAt.Add(time.Minute)
	record.Result = train.Result{
		Epochs: []train.EpochStat{
			{Epoch: 1, TrainLoss: 0.31, TrainAcc: 0.912, ValLoss: 0.27, ValAcc: 0.93},
		},
		BestEpoch:   1,
		BestValCost: 0.27,
		NetPath:     "nets/n-001-27000.nn",
	}
	record.TestAccuracy = 0.978
	if err := runs.NewRegistry(dir).Append(record); err != nil {
		t.Fatal(err)
	}
	return record
}

func TestRunsListEmpty(t *testing.T) {
	var out = execute(t, "runs", "list", "--data-dir", t.TempDir())
	if out != "no runs recorded\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestRunsList(t *testing.T) {
	var dir = t.TempDir()
	var record = seedRun(t, dir)

	var out = execute(t, "runs", "list", "--data-dir", dir)
	for _, want := range []string{record.ID[:8], "0.9300", "0.9780", "nets/n-001-27000.nn"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing misses %q:\n%s", want, out)
		}
	}
}

func TestRunsShow(t *testing.T) {
	var dir = t.TempDir()
	var record = seedRun(t, dir)

	var out = execute(t, "runs", "show", record.ID[:8], "--data-dir", dir)
	if !strings.Contains(out, record.ID) {
		t.Errorf("record not shown:\n%s", out)
	}
	if !strings.Contains(out, `"test_accuracy": 0.978`) {
		t.Errorf("accuracy not shown:\n%s", out)
	}
}

func TestFormatAcc(t *testing.T) {
	var tests = []struct {
		acc  float64
		want string
	}{
		{0, "-"},
		{0.978, "0.9780"},
		{1, "1.0000"},
	}
	for _, tt := range tests {
		if got := formatAcc(tt.acc); got != tt.want {
			t.Errorf("formatAcc(%v) = %q, want %q", tt.acc, got, tt.want)
		}
	}
}

func TestBestValAcc(t *testing.T) {
	var record = runs.Record{}
	if got := bestValAcc(record); got != 0 {
		t.Errorf("run without validation: %v", got)
	}
	record.Result = train.Result{
		Epochs:    []train.EpochStat{{ValAcc: 0.91}, {ValAcc: 0.95}},
		BestEpoch: 2,
	}
	if got := bestValAcc(record); got != 0.95 {
		t.Errorf("best epoch accuracy: %v", got)
	}
}
