package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Sequential chains modules: each module's output feeds the next
// module's input.
//
// Example:
//
//	model := nn.NewSequential[B](
//	    nn.NewFlatten[B](),
//	    nn.NewLinear(784, 128, rng, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, rng, backend),
//	)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a Sequential container over the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward applies every module in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Parameters returns the parameters of all children in order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// SetTraining propagates the mode switch to every child implementing
// TrainingMode (Dropout and nested Sequentials).
func (s *Sequential[B]) SetTraining(training bool) {
	for _, module := range s.modules {
		if tm, ok := any(module).(TrainingMode); ok {
			tm.SetTraining(training)
		}
	}
}

// Add appends a module to the sequence.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of child modules.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the child at index. Panics when out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}
