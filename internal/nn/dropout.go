package nn

import (
	"fmt"
	"math/rand"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Dropout zeroes each input element with probability p during training
// and scales the survivors by 1/(1-p), so activations keep their
// expected magnitude. In evaluation mode it is the identity.
//
// The trainer flips the mode through SetTraining before each train and
// validation phase.
type Dropout[B tensor.Backend] struct {
	p        float64
	rng      *rand.Rand
	training bool
}

// NewDropout creates a Dropout module with drop probability p in
// [0, 1). The mask draws come from rng.
func NewDropout[B tensor.Backend](p float64, rng *rand.Rand) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("NewDropout: p must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{p: p, rng: rng, training: true}
}

// SetTraining switches between the masking (true) and identity (false)
// behavior.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Forward applies the dropout mask in training mode, or returns the
// input unchanged in evaluation mode or when p is zero.
//
// The mask is a fresh constant tensor of 0 and 1/(1-p) values; the
// multiply is an ordinary differentiable op, so gradients flow through
// the kept elements and vanish at the dropped ones.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}

	mask := tensor.Zeros[float32](input.Shape(), input.Backend())
	scale := float32(1.0 / (1.0 - d.p))
	data := mask.Data()
	for i := range data {
		if d.rng.Float64() >= d.p {
			data[i] = scale
		}
	}
	return input.Mul(mask)
}

// Parameters returns nil: Dropout has no trainable parameters.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}

// P returns the drop probability.
func (d *Dropout[B]) P() float64 {
	return d.p
}
