package autodiff

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// BackwardCapable is satisfied by backends that carry a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape, satisfying BackwardCapable.
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// BackwardFrom seeds output's gradient with ones and walks the tape.
// It satisfies tensor.GradientBackend, which is how Tensor.Backward
// reaches the tape without the tensor package importing this one.
func (b *AutodiffBackend[B]) BackwardFrom(output *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	if b.tape.NumOps() == 0 {
		panic("autodiff: no operations recorded; call Tape().StartRecording() before the forward pass")
	}
	return b.tape.Backward(output, onesLike(output), b)
}

// Backward seeds t's gradient with ones and walks the tape, returning a
// gradient for every tensor on a path to t. For the usual scalar loss
// the seed is dL/dL = 1.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("autodiff: no operations recorded; call Tape().StartRecording() before the forward pass")
	}
	return tape.Backward(t.Raw(), onesLike(t.Raw()), backend)
}

func onesLike(x *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustNewRaw(x.Shape(), x.DType(), x.Device())
	switch x.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		panic(fmt.Sprintf("autodiff: cannot differentiate a %s output", x.DType()))
	}
	return out
}
