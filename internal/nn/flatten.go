package nn

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Flatten collapses every dimension after the first into one, turning
// [batch, d1, d2, ...] into [batch, d1*d2*...]. 1-D and 2-D inputs pass
// through reshaped to 2-D. No trainable state.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes the input to [batch, rest].
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) == 0 {
		panic(fmt.Sprintf("Flatten.Forward: cannot flatten a scalar of shape %v", shape))
	}
	if len(shape) == 2 {
		return input
	}
	batch := shape[0]
	rest := 1
	for _, d := range shape[1:] {
		rest *= d
	}
	return input.Reshape(batch, rest)
}

// Parameters returns nil: Flatten has no trainable parameters.
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}
