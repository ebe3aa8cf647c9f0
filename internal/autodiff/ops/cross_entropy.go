package ops

import (
	"fmt"
	"math"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// CrossEntropyOp records the fused softmax cross-entropy loss
//
//	loss = mean(-log_softmax(logits)[targets])
//
// The fusion exists for the backward pass: the gradient collapses to
//
//	d(loss)/d(logits) = (softmax(logits) - onehot(targets)) / batch
//
// which is cheaper and far better conditioned than differentiating
// softmax and log separately. The targets carry no gradient and stay
// off the tape.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates the tape node for a cross-entropy loss.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	batch, classes := shape[0], shape[1]

	grad := tensor.MustNewRaw(shape, op.logits.DType(), op.logits.Device())

	switch op.logits.DType() {
	case tensor.Float32:
		crossEntropyGrad(grad.AsFloat32(), op.logits.AsFloat32(), op.targets.AsInt32(),
			scalarValue(outputGrad), batch, classes)
	case tensor.Float64:
		crossEntropyGrad(grad.AsFloat64(), op.logits.AsFloat64(), op.targets.AsInt32(),
			scalarValue(outputGrad), batch, classes)
	default:
		panic(fmt.Sprintf("cross-entropy: no gradient for dtype %s", op.logits.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.logits} }

func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

// crossEntropyGrad writes upstream/batch * (softmax(row) - onehot) for
// every row. The softmax is recomputed with the usual max shift; dst
// briefly holds the unnormalized exponentials.
func crossEntropyGrad[T ~float32 | ~float64](dst, logits []T, targets []int32, upstream float64, batch, classes int) {
	scale := upstream / float64(batch)

	for b := 0; b < batch; b++ {
		row := logits[b*classes : (b+1)*classes]
		out := dst[b*classes : (b+1)*classes]

		maxv := row[0]
		for _, v := range row[1:] {
			if v > maxv {
				maxv = v
			}
		}

		var sum float64
		for j, v := range row {
			e := math.Exp(float64(v - maxv))
			out[j] = T(e)
			sum += e
		}

		inv := 1 / sum
		target := int(targets[b])
		for j := range out {
			p := float64(out[j]) * inv
			if j == target {
				p--
			}
			out[j] = T(p * scale)
		}
	}
}
