// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Embedding, Flatten, Dropout
//   - Activations: ReLU, Sigmoid, Tanh
//   - Loss functions: CrossEntropyLoss, MSELoss
//   - Utilities: Sequential, Module interface, Parameter, ParameterSet
//   - Initialization: Xavier, Zeros, Ones, Randn
//   - Checkpoints: SaveCheckpoint, LoadCheckpoint
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(42))
//
//	    // Build a simple MLP
//	    model := nn.NewSequential(
//	        nn.NewFlatten[*cpu.Backend](),
//	        nn.NewLinear(784, 128, rng, backend),
//	        nn.NewReLU[*cpu.Backend](),
//	        nn.NewLinear(128, 10, rng, backend),
//	    )
//
//	    // Forward pass
//	    output := model.Forward(input)
//	}
//
// Layer constructors take the *rand.Rand used for weight initialization,
// so two models built from the same seed start identical.
//
// # Parameters
//
// Trainable state lives in Parameters collected into a ParameterSet,
// which qualifies names by position ("net.1.weight") and feeds
// optimizers and checkpoints:
//
//	params := nn.NewParameterSet[*cpu.Backend]()
//	params.Collect("net", model)
//	fmt.Println(params.Names()) // [net.1.weight net.1.bias net.3.weight net.3.bias]
//
// # Loss Functions
//
//	criterion := nn.NewCrossEntropyLoss[*cpu.Backend]()
//	loss := criterion.Forward(logits, labels) // scalar tensor
//
//	mse := nn.NewMSELoss[*cpu.Backend]()
//	loss := mse.Forward(predictions, targets)
//
// # Training vs Evaluation
//
// Modules implementing TrainingMode (Dropout, and Sequential forwarding
// to its children) behave differently between phases:
//
//	model.SetTraining(true)  // dropout active
//	model.SetTraining(false) // dropout is the identity
//
// # Checkpoints
//
//	info := nn.CheckpointInfo{Epoch: 3, Step: 1200, Loss: 0.42}
//	err := nn.SaveCheckpoint("model.kiln", params, optimizer.StateDict(), info)
//	optState, loaded, err := nn.LoadCheckpoint("model.kiln", params)
package nn
