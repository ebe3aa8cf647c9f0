package ops

import "github.com/kiln-ml/kiln/internal/tensor"

// DivOp records output = a / b (element-wise).
//
//	d(a/b)/da = 1/b,   so grad_a = outputGrad / b
//	d(a/b)/db = -a/b², so grad_b = -outputGrad * output / b
//
// The b gradient reuses the cached output: a/b² == output/b.
type DivOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewDivOp creates the tape node for a / b.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	gradA := reduceBroadcast(backend.Div(outputGrad, b), a.Shape(), backend)

	gradB := backend.Mul(outputGrad, backend.Div(op.output, b))
	gradB = backend.MulScalar(gradB, -1.0)
	gradB = reduceBroadcast(gradB, b.Shape(), backend)

	return []*tensor.RawTensor{gradA, gradB}
}

func (op *DivOp) Inputs() []*tensor.RawTensor { return op.inputs }

func (op *DivOp) Output() *tensor.RawTensor { return op.output }
