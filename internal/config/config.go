// Package config captures the runtime knobs for a training run.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the full set of training parameters. The zero value is not
// runnable; start from Default.
type Config struct {
	DataDir      string  `yaml:"data_dir"`
	NetDir       string  `yaml:"net_dir"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	HiddenSize   int     `yaml:"hidden_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Optimizer    string  `yaml:"optimizer"`
	Loss         string  `yaml:"loss"`
	ValFraction  float64 `yaml:"val_fraction"`
	Threads      int     `yaml:"threads"`
	Seed         int64   `yaml:"seed"`
	LogEvery     int     `yaml:"log_every"`
}

// Default mirrors the workshop notebook: 512 hidden units, 5 epochs,
// batches of 128, rmsprop on cross-entropy.
func Default() *Config {
	return &Config{
		DataDir:      "data",
		NetDir:       "nets",
		Epochs:       5,
		BatchSize:    128,
		HiddenSize:   512,
		LearningRate: 0.001,
		Optimizer:    "rmsprop",
		Loss:         "cross_entropy",
		ValFraction:  0.1,
		Threads:      runtime.NumCPU(),
		Seed:         1,
		LogEvery:     100,
	}
}

// Load reads a YAML config. Keys left out keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	var cfg = Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overrides captures CLI supplied values. ValFraction uses -1 for
// "not set" since zero legitimately disables validation.
type Overrides struct {
	DataDir      string
	NetDir       string
	Epochs       int
	BatchSize    int
	HiddenSize   int
	LearningRate float64
	Optimizer    string
	Loss         string
	ValFraction  float64
	Threads      int
	Seed         int64
	LogEvery     int
}

// NewOverrides returns an Overrides with nothing set.
func NewOverrides() Overrides {
	return Overrides{ValFraction: -1, LogEvery: -1}
}

// ApplyOverrides updates cfg using any set override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.NetDir != "" {
		c.NetDir = o.NetDir
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.HiddenSize > 0 {
		c.HiddenSize = o.HiddenSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Optimizer != "" {
		c.Optimizer = o.Optimizer
	}
	if o.Loss != "" {
		c.Loss = o.Loss
	}
	if o.ValFraction >= 0 {
		c.ValFraction = o.ValFraction
	}
	if o.Threads > 0 {
		c.Threads = o.Threads
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery >= 0 {
		c.LogEvery = o.LogEvery
	}
}

var validOptimizers = map[string]bool{"sgd": true, "rmsprop": true, "adam": true}
var validLosses = map[string]bool{"cross_entropy": true, "mse": true}

// Validate verifies the config is runnable, normalizing thread count.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden_size must be > 0 (got %d)", c.HiddenSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %v)", c.LearningRate)
	}
	if !validOptimizers[c.Optimizer] {
		return fmt.Errorf("unknown optimizer %q (want sgd, rmsprop or adam)", c.Optimizer)
	}
	if !validLosses[c.Loss] {
		return fmt.Errorf("unknown loss %q (want cross_entropy or mse)", c.Loss)
	}
	if c.ValFraction < 0 || c.ValFraction > 0.9 {
		return fmt.Errorf("val_fraction must be within [0, 0.9] (got %v)", c.ValFraction)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("log_every must be >= 0 (got %d)", c.LogEvery)
	}
	if c.Threads <= 0 {
		c.Threads = runtime.NumCPU()
	}
	return nil
}
