package ops

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// reduceBroadcast folds a gradient back to the shape of a forward input
// that was broadcast. Broadcasting aligns shapes from the right, so any
// leading extra dimensions are summed away first, then every dimension
// the input held at size 1.
//
// Example:
//
//	forward:  a[3,1] + b[3,4] -> c[3,4]
//	backward: grad_c[3,4] -> grad_a[3,1] (summed along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		// Clone so the caller owns the result: the tape accumulates
		// into returned gradients in place.
		return grad.Clone()
	}
	if len(target) == 0 {
		return backend.Sum(grad)
	}

	result := grad
	for len(result.Shape()) > len(target) {
		result = backend.SumDim(result, 0, false)
	}

	shape := result.Shape()
	for d := range target {
		if target[d] == 1 && shape[d] > 1 {
			result = backend.SumDim(result, d, true)
			shape = result.Shape()
		}
	}

	if !result.Shape().Equal(target) {
		result = backend.Reshape(result, target)
	}
	return result
}

// fillLike returns a float tensor of x's shape and dtype with every
// element set to value.
func fillLike(x *tensor.RawTensor, value float64) *tensor.RawTensor {
	out := tensor.MustNewRaw(x.Shape(), x.DType(), x.Device())
	switch x.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		v := float32(value)
		for i := range data {
			data[i] = v
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] = value
		}
	default:
		panic(fmt.Sprintf("ops: cannot build a %s gradient", x.DType()))
	}
	return out
}

// scalarValue reads the single element of a scalar gradient.
func scalarValue(t *tensor.RawTensor) float64 {
	switch t.DType() {
	case tensor.Float32:
		return float64(t.AsFloat32()[0])
	case tensor.Float64:
		return t.AsFloat64()[0]
	default:
		panic(fmt.Sprintf("ops: %s is not a float gradient", t.DType()))
	}
}
