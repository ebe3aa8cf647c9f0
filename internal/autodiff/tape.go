package autodiff

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/autodiff/ops"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// GradientTape records differentiable operations in execution order and
// replays them in reverse to compute gradients.
//
// A tape starts out inactive. Between StartRecording and StopRecording
// every differentiable call made through an AutodiffBackend appends one
// node. Backward then walks the nodes last to first, accumulating a
// gradient for every tensor that lies on a path to the requested output.
//
// The tape is not safe for concurrent use; one goroutine owns a
// training step.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewTape creates an empty, inactive tape.
func NewTape() *GradientTape {
	return &GradientTape{}
}

// StartRecording begins recording operations.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording stops recording operations.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording reports whether operations are currently recorded.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record appends an operation if the tape is active.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Clear drops all recorded operations. The recording state is kept, so
// a training loop can clear between steps without re-arming the tape.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// Backward computes gradients for every tensor on a path to output.
//
// The walk seeds output with outputGrad, then visits the recorded
// operations in reverse. Each operation converts the gradient of its
// output into gradients of its inputs; a tensor feeding several
// operations has its gradients summed. Operations whose output never
// reaches the given root are skipped.
//
// Recording is suspended for the duration of the walk, so the backward
// math itself is never taped.
func (t *GradientTape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	if output == nil || outputGrad == nil {
		panic("autodiff: Backward needs an output tensor and its gradient")
	}
	if !outputGrad.Shape().Equal(output.Shape()) {
		panic(fmt.Sprintf("autodiff: gradient shape %v does not match output shape %v",
			outputGrad.Shape(), output.Shape()))
	}

	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	grads[output] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]

		grad, ok := grads[op.Output()]
		if !ok {
			continue
		}

		// Pin every tensor the operation may read so the backend's
		// in-place fast paths cannot overwrite them mid-walk.
		unpin := pin(append([]*tensor.RawTensor{grad, op.Output()}, op.Inputs()...))
		inputGrads := op.Backward(grad, backend)
		unpin()

		inputs := op.Inputs()
		for j, g := range inputGrads {
			if g == nil {
				continue
			}
			input := inputs[j]
			if acc, ok := grads[input]; ok {
				grads[input] = backend.Add(acc, g)
			} else {
				grads[input] = g
			}
		}
	}
	return grads
}

// pin raises the reference count of each tensor and returns a function
// undoing all of it.
func pin(tensors []*tensor.RawTensor) func() {
	restores := make([]func(), len(tensors))
	for i, t := range tensors {
		restores[i] = t.ForceNonUnique()
	}
	return func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}
}
