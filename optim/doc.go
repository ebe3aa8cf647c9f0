// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// Optimizers bind to an nn.ParameterSet at construction. Each Step reads
// the gradient slot of every parameter and updates its data in place;
// parameters without a gradient are skipped.
//
// # Basic Usage
//
//	import (
//	    "github.com/kiln-ml/kiln/autodiff"
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/nn"
//	    "github.com/kiln-ml/kiln/optim"
//	)
//
//	backend := autodiff.New(cpu.New())
//	rng := rand.New(rand.NewSource(1))
//
//	model := nn.NewLinear(784, 10, rng, backend)
//	params := nn.NewParameterSet(model.Parameters()...)
//	optimizer := optim.NewSGD(params, optim.SGDConfig{LR: 0.01})
//
// # Training Step Pattern
//
// The train package drives this wiring for you; by hand it reads:
//
//	optimizer.ZeroGrad()
//	backend.Tape().StartRecording()
//
//	loss := criterion.Forward(model.Forward(x), y)
//	grads := loss.Backward()
//
//	for _, p := range params.All() {
//	    if g, ok := grads[p.Tensor().Raw()]; ok {
//	        p.SetGrad(tensor.New[float32](g, backend))
//	    }
//	}
//	optimizer.Step()
//	backend.Tape().Clear()
//
// # Optimizers
//
// SGD (Stochastic Gradient Descent):
//
//	optimizer := optim.NewSGD(params, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//
// Adam (Adaptive Moment Estimation):
//
//	optimizer := optim.NewAdam(params, optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
//
// # State
//
// Both optimizers expose their buffers (velocity, first and second
// moments) through StateDict/LoadStateDict, so checkpoints can resume
// training mid-run with the update rule's memory intact.
package optim
