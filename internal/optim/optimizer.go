// Package optim implements optimization algorithms for the Kiln ML Framework.
//
// This package provides:
//   - Optimizer interface: the contract training loops drive
//   - SGD: stochastic gradient descent with optional momentum
//   - Adam: adaptive moment estimation with bias correction
//
// Optimizers bind to a nn.ParameterSet at construction. Each Step reads
// the gradient slot of every parameter (populated by the backward pass)
// and updates the parameter data in place, outside the gradient tape.
//
// Example:
//
//	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.01})
//	for batch := range loader {
//	    opt.ZeroGrad()
//	    // forward, loss, backward; gradients land on params
//	    opt.Step()
//	}
package optim

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Optimizer is the interface all update rules implement.
type Optimizer interface {
	// Name identifies the update rule ("SGD", "Adam") in logs and
	// checkpoint metadata.
	Name() string

	// Step applies one update to every parameter carrying a gradient.
	// Parameters whose gradient slot is nil (not on any path to the
	// loss) are skipped.
	Step()

	// ZeroGrad clears the gradient slot of every parameter. Called
	// before each backward pass so gradients never accumulate across
	// steps.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64

	// SetLR replaces the learning rate; useful for schedules.
	SetLR(lr float64)

	// StateDict exports the optimizer's internal buffers (momentum,
	// moments) keyed by "<buffer>.<param name>" for checkpointing.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores internal buffers from a checkpoint.
	// Missing buffers reinitialize lazily on the next Step; shape
	// mismatches are errors.
	LoadStateDict(state map[string]*tensor.RawTensor) error
}
