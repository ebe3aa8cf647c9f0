package cpu

import (
	"fmt"
	"math"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// CrossEntropy computes the mean negative log-likelihood of Int32
// target classes under softmax(logits), fused into one log-sum-exp pass
// per row so large logits stay finite. logits must be 2D
// [batch, classes]; the result is a scalar of the logits dtype.
func (cpu *CPUBackend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	lShape := logits.Shape()
	if len(lShape) != 2 {
		panic(fmt.Sprintf("crossentropy: logits must be 2D, got shape %v", lShape))
	}
	if targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("crossentropy: targets must be int32, got %s", targets.DType()))
	}

	batch, classes := lShape[0], lShape[1]
	if classes == 0 {
		panic("crossentropy: logits have zero classes")
	}

	tgt := targets.AsInt32()
	if len(tgt) != batch {
		panic(fmt.Sprintf("crossentropy: %d logit rows but %d targets", batch, len(tgt)))
	}

	result := tensor.MustNewRaw(tensor.Shape{}, logits.DType(), cpu.device)

	switch logits.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = float32(meanNLL(logits.AsFloat32(), tgt, batch, classes))
	case tensor.Float64:
		result.AsFloat64()[0] = meanNLL(logits.AsFloat64(), tgt, batch, classes)
	default:
		panic(fmt.Sprintf("crossentropy: unsupported dtype %s (only float32/float64 supported)", logits.DType()))
	}

	return result
}

// meanNLL returns mean(logsumexp(row) - row[target]) over all rows.
func meanNLL[T ~float32 | ~float64](logits []T, targets []int32, batch, classes int) float64 {
	var total float64
	for r := 0; r < batch; r++ {
		row := logits[r*classes : (r+1)*classes]
		t := int(targets[r])
		if t < 0 || t >= classes {
			panic(fmt.Sprintf("crossentropy: target %d out of range [0, %d)", t, classes))
		}

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}

		var sum float64
		for _, v := range row {
			sum += math.Exp(float64(v - maxVal))
		}

		total += float64(maxVal) + math.Log(sum) - float64(row[t])
	}

	return total / float64(batch)
}
