package cpu

import (
	"fmt"
	"math"

	"github.com/kiln-ml/kiln/internal/parallel"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		reluTo(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		reluTo(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

func reluTo[T ~float32 | ~float64](dst, src []T) {
	for i, v := range src {
		if v < 0 {
			v = 0
		}
		dst[i] = v
	}
}

// Sigmoid computes 1/(1+exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.floatUnary("sigmoid", x, func(v float64) float64 {
		return 1 / (1 + math.Exp(-v))
	})
}

// Tanh computes the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.floatUnary("tanh", x, math.Tanh)
}

// Softmax normalizes along the last dimension into probabilities.
// Each row is shifted by its max before exponentiation so large logits
// do not overflow.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) == 0 {
		panic("softmax: scalar tensor has no dimension to normalize")
	}

	result := tensor.MustNewRaw(shape, x.DType(), cpu.device)

	width := shape[len(shape)-1]
	if width == 0 {
		return result
	}
	rows := x.NumElements() / width

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		parallel.ForRows(rows, width, func(r int) {
			softmaxRow(dst[r*width:(r+1)*width], src[r*width:(r+1)*width])
		}, cpu.par)
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		parallel.ForRows(rows, width, func(r int) {
			softmaxRow(dst[r*width:(r+1)*width], src[r*width:(r+1)*width])
		}, cpu.par)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

func softmaxRow[T ~float32 | ~float64](dst, src []T) {
	maxVal := src[0]
	for _, v := range src[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum float64
	for i, v := range src {
		e := math.Exp(float64(v - maxVal))
		dst[i] = T(e)
		sum += e
	}

	inv := T(1 / sum)
	for i := range dst {
		dst[i] *= inv
	}
}
