package ops

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// SoftmaxOp records output = softmax(x) along the last dimension.
//
// With y = softmax(x) and g the output gradient, every row satisfies
//
//	dx = y * (g - Σ g·y)
//
// where the sum runs over the row. This is the Jacobian-vector product
// written without materializing the Jacobian.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSoftmaxOp creates the tape node for softmax(x).
func NewSoftmaxOp(x, output *tensor.RawTensor) *SoftmaxOp {
	return &SoftmaxOp{input: x, output: output}
}

func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	out := tensor.MustNewRaw(shape, op.input.DType(), op.input.Device())

	n := op.input.NumElements()
	if n == 0 {
		return []*tensor.RawTensor{out}
	}
	width := shape[len(shape)-1]
	rows := n / width

	switch op.input.DType() {
	case tensor.Float32:
		softmaxGrad(out.AsFloat32(), op.output.AsFloat32(), outputGrad.AsFloat32(), rows, width)
	case tensor.Float64:
		softmaxGrad(out.AsFloat64(), op.output.AsFloat64(), outputGrad.AsFloat64(), rows, width)
	default:
		panic(fmt.Sprintf("softmax: no gradient for dtype %s", op.input.DType()))
	}
	return []*tensor.RawTensor{out}
}

func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }

func softmaxGrad[T ~float32 | ~float64](dst, y, g []T, rows, width int) {
	for r := 0; r < rows; r++ {
		row := r * width

		var dot float64
		for j := 0; j < width; j++ {
			dot += float64(g[row+j]) * float64(y[row+j])
		}

		for j := 0; j < width; j++ {
			dst[row+j] = y[row+j] * (g[row+j] - T(dot))
		}
	}
}
