// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// TrainingMode is implemented by modules whose forward pass differs
// between training and evaluation, such as Dropout.
type TrainingMode = nn.TrainingMode

// Parameters

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// ParameterSet is a named, ordered collection of parameters. Optimizers
// iterate it in insertion order; checkpoints address tensors by name.
type ParameterSet[B tensor.Backend] = nn.ParameterSet[B]

// NewParameterSet creates a set holding the given parameters under their
// own local names.
//
// Example:
//
//	params := nn.NewParameterSet(layer.Parameters()...)
//
// For whole networks use Collect, which qualifies names by position:
//
//	params := nn.NewParameterSet[*cpu.Backend]()
//	params.Collect("net", model)
func NewParameterSet[B tensor.Backend](params ...*Parameter[B]) *ParameterSet[B] {
	return nn.NewParameterSet(params...)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	rng := rand.New(rand.NewSource(42))
//	layer := nn.NewLinear(784, 128, rng, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// Embedding represents a lookup table from ids to dense vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an embedding layer with Randn-initialized weights.
//
// Example:
//
//	embed := nn.NewEmbedding(vocabSize, 64, rng, backend)
func NewEmbedding[B tensor.Backend](numEmbeddings, embedDim int, rng *rand.Rand, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embedDim, rng, backend)
}

// Flatten collapses every dimension after the batch dimension.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a new flatten layer.
//
// Example:
//
//	flat := nn.NewFlatten[*cpu.Backend]()
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Dropout zeroes a fraction of activations during training and rescales
// the rest; in evaluation mode it is the identity.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer with drop probability p.
//
// Example:
//
//	drop := nn.NewDropout[*cpu.Backend](0.5, rng)
func NewDropout[B tensor.Backend](p float64, rng *rand.Rand) *Dropout[B] {
	return nn.NewDropout[B](p, rng)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
//
// Example:
//
//	relu := nn.NewReLU[*cpu.Backend]()
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid represents the Sigmoid activation function.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a new Sigmoid activation layer.
//
// Example:
//
//	sigmoid := nn.NewSigmoid[*cpu.Backend]()
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh represents the Tanh activation function.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new Tanh activation layer.
//
// Example:
//
//	tanh := nn.NewTanh[*cpu.Backend]()
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Containers

// Sequential chains modules, feeding each output to the next module.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, rng, backend),
//	    nn.NewReLU[*cpu.Backend](),
//	    nn.NewLinear(128, 10, rng, backend),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Losses

// CrossEntropyLoss computes the mean negative log-likelihood of the
// target classes under softmax. Targets are float32 class ids, cast at
// the loss boundary.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a new cross-entropy criterion.
//
// Example:
//
//	criterion := nn.NewCrossEntropyLoss[*cpu.Backend]()
//	loss := criterion.Forward(logits, labels)
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss[B]()
}

// MSELoss computes the mean squared error.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates a new mean-squared-error criterion.
//
// Example:
//
//	criterion := nn.NewMSELoss[*cpu.Backend]()
//	loss := criterion.Forward(predictions, targets)
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}

// Accuracy returns the fraction of rows where the argmax of the logits
// equals the target class id.
func Accuracy[B tensor.Backend](logits, targets *tensor.Tensor[float32, B]) float64 {
	return nn.Accuracy(logits, targets)
}

// Initialization

// Xavier creates a tensor initialized with Xavier/Glorot uniform values
// for the given fan-in and fan-out.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, rng, backend)
}

// Zeros creates a zero-initialized float32 tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates one-initialized float32 tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn creates a float32 tensor with standard normal values.
func Randn[B tensor.Backend](shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, rng, backend)
}

// Checkpoints

// CheckpointInfo is the training state saved alongside the parameters.
type CheckpointInfo = nn.CheckpointInfo

// SaveCheckpoint writes the parameters, the optimizer's state buffers
// and the run info into a single .kiln file at path.
//
// Example:
//
//	info := nn.CheckpointInfo{Epoch: 3, Step: 1200, Loss: 0.42}
//	err := nn.SaveCheckpoint("model.kiln", params, opt.StateDict(), info)
func SaveCheckpoint[B tensor.Backend](path string, params *ParameterSet[B], optimizerState map[string]*tensor.RawTensor, info CheckpointInfo) error {
	return nn.SaveCheckpoint(path, params, optimizerState, info)
}

// LoadCheckpoint restores parameter values from the checkpoint at path
// into the given set and returns the optimizer state buffers and the
// saved run info.
func LoadCheckpoint[B tensor.Backend](path string, params *ParameterSet[B]) (map[string]*tensor.RawTensor, *CheckpointInfo, error) {
	return nn.LoadCheckpoint(path, params)
}
