package ops

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// EmbeddingOp records output[i] = weight[indices[i]].
//
// The backward pass is a scatter-add: each output row's gradient is
// accumulated into the weight row it was gathered from, so indices that
// appear several times sum their contributions. The indices carry no
// gradient and stay off the tape.
type EmbeddingOp struct {
	weight  *tensor.RawTensor
	indices *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewEmbeddingOp creates the tape node for an embedding lookup.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{weight: weight, indices: indices, output: output}
}

func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.weight.Shape()
	rows, dim := shape[0], shape[1]

	gradW := tensor.MustNewRaw(shape, op.weight.DType(), op.weight.Device())
	indices := op.indices.AsInt32()

	switch op.weight.DType() {
	case tensor.Float32:
		scatterAdd(gradW.AsFloat32(), outputGrad.AsFloat32(), indices, rows, dim)
	case tensor.Float64:
		scatterAdd(gradW.AsFloat64(), outputGrad.AsFloat64(), indices, rows, dim)
	default:
		panic(fmt.Sprintf("embedding: no gradient for dtype %s", op.weight.DType()))
	}
	return []*tensor.RawTensor{gradW}
}

func (op *EmbeddingOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.weight} }

func (op *EmbeddingOp) Output() *tensor.RawTensor { return op.output }

func scatterAdd[T ~float32 | ~float64](gradW, gradOut []T, indices []int32, rows, dim int) {
	for i, ix := range indices {
		if ix < 0 || int(ix) >= rows {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", ix, rows))
		}
		dst := gradW[int(ix)*dim : (int(ix)+1)*dim]
		src := gradOut[i*dim : (i+1)*dim]
		for j, v := range src {
			dst[j] += v
		}
	}
}
