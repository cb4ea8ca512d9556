package ml

import (
	"fmt"
	"math"
)

// Default optimizer constants.
const (
	Beta1   = 0.9
	Beta2   = 0.999
	Rho     = 0.9
	Epsilon = 1e-8
)

// Gradient accumulates the raw gradient for one weight plus the moment
// estimates the optimizer keeps between batches.
type Gradient struct {
	Value float64
	M1    float64
	M2    float64
}

// Optimizer turns an accumulated gradient into the delta subtracted from
// the weight, updating the moment state in place.
type Optimizer interface {
	Delta(g *Gradient) float64
}

type SGD struct {
	LearningRate float64
}

func NewSGD(learningRate float64) *SGD {
	return &SGD{LearningRate: learningRate}
}

func (o *SGD) Delta(g *Gradient) float64 {
	return o.LearningRate * g.Value
}

// RMSProp keeps a decaying average of squared gradients in M2. The
// default training configuration uses it.
type RMSProp struct {
	LearningRate float64
	Rho          float64
	Epsilon      float64
}

func NewRMSProp(learningRate float64) *RMSProp {
	return &RMSProp{LearningRate: learningRate, Rho: Rho, Epsilon: Epsilon}
}

func (o *RMSProp) Delta(g *Gradient) float64 {
	if g.Value == 0 {
		// nothing to calculate
		return 0
	}
	g.M2 = g.M2*o.Rho + (g.Value*g.Value)*(1-o.Rho)
	return o.LearningRate * g.Value / (math.Sqrt(g.M2) + o.Epsilon)
}

// Adam keeps first and second moment estimates in M1/M2.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
}

func NewAdam(learningRate float64) *Adam {
	return &Adam{LearningRate: learningRate, Beta1: Beta1, Beta2: Beta2, Epsilon: Epsilon}
}

func (o *Adam) Delta(g *Gradient) float64 {
	if g.Value == 0 {
		// nothing to calculate
		return 0
	}
	g.M1 = g.M1*o.Beta1 + g.Value*(1-o.Beta1)
	g.M2 = g.M2*o.Beta2 + (g.Value*g.Value)*(1-o.Beta2)
	return o.LearningRate * g.M1 / (math.Sqrt(g.M2) + o.Epsilon)
}

// OptimizerByName builds the optimizer selected in the run config.
func OptimizerByName(name string, learningRate float64) (Optimizer, error) {
	switch name {
	case "sgd":
		return NewSGD(learningRate), nil
	case "rmsprop":
		return NewRMSProp(learningRate), nil
	case "adam":
		return NewAdam(learningRate), nil
	}
	return nil, fmt.Errorf("ml: unknown optimizer %q", name)
}

// Gradients holds one Gradient per element of a weight matrix, laid out
// like the matrix itself.
type Gradients struct {
	Data []Gradient
	Rows int
	Cols int
}

func NewGradients(rows, cols int) Gradients {
	return Gradients{
		Data: make([]Gradient, cols*rows),
		Rows: rows,
		Cols: cols,
	}
}

func (g *Gradients) Add(row, col int, delta float64) {
	g.Data[col*g.Rows+row].Value += delta
}

// AddTo drains this accumulator into a parent, leaving it zeroed for the
// next batch. Worker copies feed the main model this way.
func (g *Gradients) AddTo(parent *Gradients) {
	for i := range g.Data {
		parent.Data[i].Value += g.Data[i].Value
		g.Data[i].Value = 0
	}
}

// Apply subtracts the optimizer delta from every weight and resets the
// accumulated values. Moment state survives between batches.
func (g *Gradients) Apply(m *Matrix, opt Optimizer) {
	for i := range g.Data {
		m.Data[i] -= opt.Delta(&g.Data[i])
		g.Data[i].Value = 0
	}
}
