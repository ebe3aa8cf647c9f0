package ops

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// SumOp records output = sum(x), a scalar. Every element contributed
// with weight 1, so the backward pass spreads the scalar gradient over
// the input shape.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates the tape node for sum(x).
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: x, output: output}
}

func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{fillLike(op.input, scalarValue(outputGrad))}
}

func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// MeanOp records output = mean(x), a scalar. Like SumOp with the
// gradient scaled by 1/n.
type MeanOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewMeanOp creates the tape node for mean(x).
func NewMeanOp(x, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{input: x, output: output}
}

func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	g := scalarValue(outputGrad) / float64(op.input.NumElements())
	return []*tensor.RawTensor{fillLike(op.input, g)}
}

func (op *MeanOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *MeanOp) Output() *tensor.RawTensor { return op.output }

// SumDimOp records output = sum(x, dim, keepDim). The backward pass
// stretches the reduced gradient back over the collapsed dimension.
type SumDimOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewSumDimOp creates the tape node for sum(x, dim). Whether the
// forward call kept the dimension does not matter for the gradient: the
// flat layout of the reduced tensor is the same either way.
func NewSumDimOp(x, output *tensor.RawTensor, dim int) *SumDimOp {
	return &SumDimOp{input: x, output: output, dim: dim}
}

func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{expandDim(outputGrad, op.input.Shape(), op.dim, 1)}
}

func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *SumDimOp) Output() *tensor.RawTensor { return op.output }

// MeanDimOp records output = mean(x, dim, keepDim).
type MeanDimOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewMeanDimOp creates the tape node for mean(x, dim).
func NewMeanDimOp(x, output *tensor.RawTensor, dim int) *MeanDimOp {
	return &MeanDimOp{input: x, output: output, dim: dim}
}

func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	dim := op.dim
	if dim < 0 {
		dim += len(shape)
	}
	scale := 1 / float64(shape[dim])
	return []*tensor.RawTensor{expandDim(outputGrad, shape, op.dim, scale)}
}

func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *MeanDimOp) Output() *tensor.RawTensor { return op.output }

// expandDim stretches a gradient that was reduced along dim back to the
// target shape, scaling each copy. The layout splits into
// [outer, n, inner] blocks around the reduced dimension, mirroring how
// the forward reduction walks the data.
func expandDim(grad *tensor.RawTensor, target tensor.Shape, dim int, scale float64) *tensor.RawTensor {
	if dim < 0 {
		dim += len(target)
	}
	out := tensor.MustNewRaw(target, grad.DType(), grad.Device())

	n := target[dim]
	inner := 1
	for d := dim + 1; d < len(target); d++ {
		inner *= target[d]
	}
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= target[d]
	}

	switch grad.DType() {
	case tensor.Float32:
		expandRows(out.AsFloat32(), grad.AsFloat32(), outer, n, inner, float32(scale))
	case tensor.Float64:
		expandRows(out.AsFloat64(), grad.AsFloat64(), outer, n, inner, scale)
	default:
		panic(fmt.Sprintf("ops: cannot expand a %s gradient", grad.DType()))
	}
	return out
}

func expandRows[T ~float32 | ~float64](dst, src []T, outer, n, inner int, scale T) {
	for o := 0; o < outer; o++ {
		srcRow := src[o*inner : (o+1)*inner]
		for j := 0; j < n; j++ {
			dstRow := dst[(o*n+j)*inner : (o*n+j+1)*inner]
			for i, v := range srcRow {
				dstRow[i] = v * scale
			}
		}
	}
}
