package nn

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// MSELoss computes mean((predictions - targets)²) through differentiable
// tensor ops, so the loss records on the tape and gradients flow back to
// the predictions.
//
// Example:
//
//	mse := nn.NewMSELoss[B]()
//	loss := mse.Forward(model.Forward(x), y) // scalar
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates an MSE criterion.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward returns the scalar mean squared error.
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic(fmt.Sprintf("MSELoss: predictions shape %v does not match targets shape %v",
			predictions.Shape(), targets.Shape()))
	}
	diff := predictions.Sub(targets)
	return diff.Mul(diff).Mean()
}

// CrossEntropyLoss computes the mean negative log-likelihood of target
// classes under softmax(logits), fused into one backend op with a
// single tape node whose backward is (softmax - onehot)/batch.
//
// Targets arrive as float32 class labels (the data pipeline carries
// everything as float32) and are cast to indices at this boundary.
type CrossEntropyLoss[B tensor.Backend] struct{}

// NewCrossEntropyLoss creates a cross-entropy criterion.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{}
}

// Forward returns the scalar mean NLL of targets under the logits.
// logits is [batch, classes]; targets is [batch] (or [batch, 1]) of
// class labels.
func (c *CrossEntropyLoss[B]) Forward(logits, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	t := targets
	if s := t.Shape(); len(s) == 2 && s[1] == 1 {
		t = t.Reshape(s[0])
	}
	return logits.CrossEntropy(tensor.Cast[int32](t))
}

// Accuracy returns the fraction of rows where argmax(logits) equals the
// target class. logits is [batch, classes]; targets holds float32
// class labels of shape [batch] or [batch, 1]. Purely observational,
// never recorded.
func Accuracy[B tensor.Backend](logits, targets *tensor.Tensor[float32, B]) float64 {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Accuracy: logits must be 2D, got shape %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if batch == 0 {
		return 0
	}

	logitsData := logits.Raw().AsFloat32()
	targetsData := targets.Raw().AsFloat32()
	if len(targetsData) != batch {
		panic(fmt.Sprintf("Accuracy: %d logit rows but %d targets", batch, len(targetsData)))
	}

	correct := 0
	for b := 0; b < batch; b++ {
		row := logitsData[b*classes : (b+1)*classes]
		if argmaxRow(row) == int(targetsData[b]) {
			correct++
		}
	}
	return float64(correct) / float64(batch)
}

func argmaxRow(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
