// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

/*
Package train drives the optimization loop in Kiln ML.

The Trainer owns the epoch and batch iteration, the backward pass,
gradient clipping, optimizer stepping, validation, progress plotting
and checkpointing; the Model contract keeps the what-to-compute side
pluggable. The conversation between the two is explicit: the trainer
peeks the first batch to learn the input shape, has the model Build its
parameters, binds an optimizer through ConfigureOptimizers, and then
alternates training and validation phases, handing every hook a Context
describing where in the run it is.

# Basic Usage

Fit linear regression on synthetic data:

	import (
	    "github.com/kiln-ml/kiln/autodiff"
	    "github.com/kiln-ml/kiln/backend/cpu"
	    "github.com/kiln-ml/kiln/data"
	    "github.com/kiln-ml/kiln/train"
	)

	backend := autodiff.New(cpu.New())

	dm, err := data.NewSyntheticRegression(data.SyntheticRegressionConfig{
	    W:    []float32{2, -3.4},
	    Bias: 4.2,
	}, backend)
	if err != nil {
	    log.Fatal(err)
	}

	model := train.NewRegressor(backend, train.RegressorConfig{LR: 0.03})

	trainer, err := train.New(backend, train.Config{MaxEpochs: 3})
	if err != nil {
	    log.Fatal(err)
	}
	report, err := trainer.Fit(model, dm)
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("final val loss %.4f\n", report.Final().ValLoss)

# The Model Contract

A Model supplies four hooks: Build allocates the network once the
trainer has seen the shape of the data, Forward computes predictions,
Loss reduces predictions and targets to a differentiable scalar, and
ConfigureOptimizers binds an update rule to the built parameters.
Embedding Base supplies inert defaults, so a custom model overrides
only what it needs:

	type mymodel struct {
	    train.Base[*autodiff.Backend[*cpu.Backend]]
	    net *nn.Sequential[*autodiff.Backend[*cpu.Backend]]
	    // ...
	}

Three ready-made models cover the common shapes of the problem:
Regressor (Linear + MSE + SGD), Classifier (MLP + cross-entropy + SGD,
with validation accuracy) and LanguageModel (embedding + MLP +
cross-entropy + Adam, for next-token prediction).

# Custom Steps

The default training step is Forward then Loss; the default validation
step additionally records "val_loss". A model that needs more replaces
them by implementing TrainingStepper or ValidationStepper. The trainer
still owns the backward pass and the optimizer update either way:

	func (m *mymodel) ValidationStep(batch data.Batch[B], ctx *train.Context) error {
	    pred := m.Forward(batch.X)
	    loss, err := m.Loss(pred, batch.Y)
	    if err != nil {
	        return err
	    }
	    ctx.Observe(train.MetricValLoss, float64(loss.Item()))
	    ctx.Observe("val_acc", nn.Accuracy(pred, batch.Y))
	    return nil
	}

# Plotting and Checkpoints

Config.Board wires a board.Board into the run; the default steps plot
"train_loss" and "val_loss" curves into it at the configured density.
Config.CheckpointPath saves the parameters, optimizer state and run
hyperparameters after the final epoch (and every CheckpointEvery epochs
when set); nn.LoadCheckpoint restores them.

The trainer is single-threaded by design: one goroutine owns the tape,
the parameters and the board for the duration of Fit.
*/
package train
