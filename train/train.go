// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"github.com/kiln-ml/kiln/internal/autodiff"
	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/train"
)

// Trainer runs the fit loop on an autodiff-decorated backend.
type Trainer[B tensor.Backend] = train.Trainer[B]

// Config holds the trainer's hyperparameters and wiring.
type Config = train.Config

// Context carries the per-step training state into model hooks.
//
// The trainer owns the context and mutates it between steps; hooks read
// it during their call and must not retain it.
type Context = train.Context

// Report is the outcome of a completed fit.
type Report = train.Report

// EpochStats summarizes one completed epoch.
type EpochStats = train.EpochStats

// Mean is a streaming average over observed values.
type Mean = train.Mean

// Well-known metric names. The fit Report picks these out of the epoch
// metrics; models may Observe additional names of their own.
const (
	MetricTrainLoss   = train.MetricTrainLoss
	MetricValLoss     = train.MetricValLoss
	MetricValAccuracy = train.MetricValAccuracy
)

// Sentinel errors reported by models that keep the Base defaults.
var (
	ErrLossNotImplemented = train.ErrLossNotImplemented
	ErrNoOptimizer        = train.ErrNoOptimizer
)

// New creates a trainer. The backend must be the same decorated
// backend the model's layers and the data loaders are built on, so
// that every forward operation lands on its tape.
func New[B tensor.Backend](backend *autodiff.AutodiffBackend[B], config Config) (*Trainer[B], error) {
	return train.New(backend, config)
}

// Model is the contract between a learnable model and the Trainer.
//
// Construction is two-phase: a model is created with its configuration
// only, and Build later allocates the network once the trainer has seen
// the shape of the data.
type Model[B tensor.Backend] = train.Model[B]

// TrainingStepper replaces the trainer's default training step. The
// returned loss must be a scalar computed through the recording
// backend; the trainer runs the backward pass and the optimizer update
// either way.
type TrainingStepper[B tensor.Backend] = train.TrainingStepper[B]

// ValidationStepper replaces the trainer's default validation step. The
// step runs with gradient recording suspended and the model in eval
// mode.
type ValidationStepper[B tensor.Backend] = train.ValidationStepper[B]

// HyperParametered is implemented by models that capture their
// construction hyperparameters. The trainer folds the set into its log
// output and checkpoint metadata.
type HyperParametered = train.HyperParametered

// Base supplies the Model defaults. Concrete models embed it and
// override what they implement.
type Base[B tensor.Backend] = train.Base[B]

// Models

// Regressor is linear regression as a Model: a single Linear layer with
// one output, mean squared error loss and plain SGD.
type Regressor[B tensor.Backend] = train.Regressor[B]

// RegressorConfig holds the Regressor hyperparameters.
type RegressorConfig = train.RegressorConfig

// NewRegressor creates an unbuilt regressor; the network is allocated
// by Build once the input width is known.
func NewRegressor[B tensor.Backend](backend B, config RegressorConfig) *Regressor[B] {
	return train.NewRegressor(backend, config)
}

// Classifier learns a mapping from feature rows to class logits with
// cross-entropy loss. The default network is a one-hidden-layer MLP;
// ClassifierConfig.Net substitutes a custom one.
//
// Its ValidationStep records both the validation loss and the fraction
// of correctly classified rows.
type Classifier[B tensor.Backend] = train.Classifier[B]

// ClassifierConfig holds the Classifier hyperparameters.
type ClassifierConfig[B tensor.Backend] = train.ClassifierConfig[B]

// NewClassifier creates an unbuilt classifier.
func NewClassifier[B tensor.Backend](backend B, config ClassifierConfig[B]) *Classifier[B] {
	return train.NewClassifier(backend, config)
}

// LanguageModel predicts the next token from a fixed window of
// preceding tokens. Each window is embedded, flattened and pushed
// through a small MLP producing vocabulary logits; training minimizes
// cross-entropy against the actual next token.
type LanguageModel[B tensor.Backend] = train.LanguageModel[B]

// LanguageModelConfig holds the LanguageModel hyperparameters.
type LanguageModelConfig = train.LanguageModelConfig

// NewLanguageModel creates an unbuilt next-token model.
func NewLanguageModel[B tensor.Backend](backend B, config LanguageModelConfig) *LanguageModel[B] {
	return train.NewLanguageModel(backend, config)
}
