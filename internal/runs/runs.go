// Package runs keeps a local registry of training runs, so results stay
// comparable across experiments.
package runs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridl/2018-ComputeFest/internal/config"
	"github.com/gridl/2018-ComputeFest/internal/train"
)

var (
	// ErrNotFound indicates no run matches the reference.
	ErrNotFound = errors.New("runs: run not found")

	// ErrAmbiguous indicates an ID prefix matching several runs.
	ErrAmbiguous = errors.New("runs: ambiguous run reference")
)

// Record is everything worth keeping about one training run.
type Record struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Config       config.Config `json:"config"`
	Result       train.Result  `json:"result"`
	TestAccuracy float64       `json:"test_accuracy,omitempty"`
}

// NewRecord stamps a fresh record for a run starting now.
func NewRecord(cfg config.Config) Record {
	return Record{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Config:    cfg,
	}
}

// Registry stores records in a single JSON file next to the data.
type Registry struct {
	path string
	mu   sync.Mutex
}

func NewRegistry(dir string) *Registry {
	return &Registry{path: filepath.Join(dir, "runs.json")}
}

// Append adds a record and persists the registry atomically.
func (r *Registry) Append(record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.load()
	if err != nil {
		return err
	}
	records = append(records, record)
	return r.save(records)
}

// List returns all records, most recent first.
func (r *Registry) List() ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}

// Get resolves a run by ID or unique ID prefix.
func (r *Registry) Get(ref string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.load()
	if err != nil {
		return Record{}, err
	}
	var found []Record
	for _, record := range records {
		if record.ID == ref {
			return record, nil
		}
		if strings.HasPrefix(record.ID, ref) {
			found = append(found, record)
		}
	}
	switch len(found) {
	case 0:
		return Record{}, fmt.Errorf("%w: %v", ErrNotFound, ref)
	case 1:
		return found[0], nil
	}
	return Record{}, fmt.Errorf("%w: %v matches %v runs", ErrAmbiguous, ref, len(found))
}

func (r *Registry) load() ([]Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("runs: corrupt registry %v: %w", r.path, err)
	}
	return records, nil
}

func (r *Registry) save(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	var tmp = r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
