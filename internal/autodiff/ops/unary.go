package ops

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// ExpOp records output = exp(x). Since d(exp(x))/dx = exp(x), the
// backward pass reuses the cached output.
type ExpOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpOp creates the tape node for exp(x).
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{input: x, output: output}
}

func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

func (op *ExpOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *ExpOp) Output() *tensor.RawTensor { return op.output }

// LogOp records output = ln(x), with d(ln(x))/dx = 1/x.
type LogOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewLogOp creates the tape node for ln(x).
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{input: x, output: output}
}

func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.input)}
}

func (op *LogOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *LogOp) Output() *tensor.RawTensor { return op.output }

// ReLUOp records output = max(0, x). The gradient passes through where
// the input was positive and is zero elsewhere.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates the tape node for max(0, x).
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: x, output: output}
}

func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	out := tensor.MustNewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	switch op.input.DType() {
	case tensor.Float32:
		reluGrad(out.AsFloat32(), op.input.AsFloat32(), outputGrad.AsFloat32())
	case tensor.Float64:
		reluGrad(out.AsFloat64(), op.input.AsFloat64(), outputGrad.AsFloat64())
	default:
		panic(fmt.Sprintf("relu: no gradient for dtype %s", op.input.DType()))
	}
	return []*tensor.RawTensor{out}
}

func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

func reluGrad[T ~float32 | ~float64](dst, x, g []T) {
	// dst starts zeroed, only the positive positions are written.
	for i := range dst {
		if x[i] > 0 {
			dst[i] = g[i]
		}
	}
}

// SigmoidOp records output = 1/(1+exp(-x)). With y the cached output,
// dy/dx = y * (1 - y).
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates the tape node for sigmoid(x).
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{input: x, output: output}
}

func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	out := tensor.MustNewRaw(op.output.Shape(), op.output.DType(), op.output.Device())
	switch op.output.DType() {
	case tensor.Float32:
		sigmoidGrad(out.AsFloat32(), op.output.AsFloat32(), outputGrad.AsFloat32())
	case tensor.Float64:
		sigmoidGrad(out.AsFloat64(), op.output.AsFloat64(), outputGrad.AsFloat64())
	default:
		panic(fmt.Sprintf("sigmoid: no gradient for dtype %s", op.output.DType()))
	}
	return []*tensor.RawTensor{out}
}

func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *SigmoidOp) Output() *tensor.RawTensor { return op.output }

func sigmoidGrad[T ~float32 | ~float64](dst, y, g []T) {
	for i := range dst {
		dst[i] = g[i] * y[i] * (1 - y[i])
	}
}

// TanhOp records output = tanh(x). With y the cached output,
// dy/dx = 1 - y².
type TanhOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewTanhOp creates the tape node for tanh(x).
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{input: x, output: output}
}

func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	out := tensor.MustNewRaw(op.output.Shape(), op.output.DType(), op.output.Device())
	switch op.output.DType() {
	case tensor.Float32:
		tanhGrad(out.AsFloat32(), op.output.AsFloat32(), outputGrad.AsFloat32())
	case tensor.Float64:
		tanhGrad(out.AsFloat64(), op.output.AsFloat64(), outputGrad.AsFloat64())
	default:
		panic(fmt.Sprintf("tanh: no gradient for dtype %s", op.output.DType()))
	}
	return []*tensor.RawTensor{out}
}

func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

func (op *TanhOp) Output() *tensor.RawTensor { return op.output }

func tanhGrad[T ~float32 | ~float64](dst, y, g []T) {
	for i := range dst {
		dst[i] = g[i] * (1 - y[i]*y[i])
	}
}
