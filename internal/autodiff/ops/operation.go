// Package ops implements the differentiable operations recorded on the
// gradient tape.
//
// Each operation captures the tensors that flowed through one forward
// call and knows how to turn the gradient of its output into gradients
// of its inputs. Inputs lists only tensors that can carry a gradient:
// integer index and target tensors are held privately and never reach
// the tape walk.
//
// Backward implementations return tensors the caller may mutate. A
// gradient that would simply pass through is cloned, so the tape is free
// to accumulate into the returned tensors in place.
package ops

import "github.com/kiln-ml/kiln/internal/tensor"

// Operation is one node of the recorded computation graph.
type Operation interface {
	// Backward computes the gradient of each input given the gradient
	// of the output. The returned slice is parallel to Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the tensors a gradient flows back to.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by the forward call.
	Output() *tensor.RawTensor
}
