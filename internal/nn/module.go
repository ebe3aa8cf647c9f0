// Package nn implements neural network building blocks for the Kiln ML Framework.
//
// The package provides:
//   - Module interface: the contract every layer and container satisfies
//   - Parameter and ParameterSet: trainable tensors with gradient slots,
//     collected under stable names for optimizers and checkpoints
//   - Linear, Embedding: parameterized layers
//   - ReLU, Sigmoid, Tanh, Flatten, Dropout: stateless or mode-switched layers
//   - Sequential: a container that chains modules
//   - MSELoss, CrossEntropyLoss: loss criteria
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every module computes an output tensor from an input tensor and exposes
// its trainable parameters. Modules compose into networks:
//
//	model := nn.NewSequential[B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without trainable
	// state (activations, Flatten, Dropout) return nil.
	Parameters() []*Parameter[B]
}

// TrainingMode is implemented by modules whose forward pass differs
// between training and evaluation, such as Dropout. The trainer switches
// the mode before the train and validation phases of each epoch;
// Sequential propagates the switch to its children.
type TrainingMode interface {
	SetTraining(training bool)
}
