package cpu

import (
	"math"
	"testing"

	"github.com/kiln-ml/kiln/internal/tensor"
)

func TestCrossEntropy_UniformLogits(t *testing.T) {
	backend := New()

	// Equal logits over 4 classes: loss is ln(4) regardless of target.
	logits := newFloat32(t, tensor.Shape{2, 4}, []float32{1, 1, 1, 1, 1, 1, 1, 1})
	targets := tensor.MustNewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	copy(targets.AsInt32(), []int32{0, 3})

	result := backend.CrossEntropy(logits, targets)
	if len(result.Shape()) != 0 {
		t.Fatalf("Expected scalar shape, got %v", result.Shape())
	}

	want := float32(math.Log(4))
	if got := result.AsFloat32()[0]; !almostEqual(got, want, 1e-5) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCrossEntropy_MatchesManualSoftmax(t *testing.T) {
	backend := New()

	logitData := []float32{2, 1, 0.5, -1, 3, 0}
	logits := newFloat32(t, tensor.Shape{2, 3}, logitData)
	targets := tensor.MustNewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	copy(targets.AsInt32(), []int32{0, 1})

	result := backend.CrossEntropy(logits, targets)

	// Reference: -mean(log(softmax(row)[target])).
	var want float64
	for r := 0; r < 2; r++ {
		row := logitData[r*3 : (r+1)*3]
		var sum float64
		for _, v := range row {
			sum += math.Exp(float64(v))
		}
		tgt := []int{0, 1}[r]
		want -= math.Log(math.Exp(float64(row[tgt])) / sum)
	}
	want /= 2

	if got := result.AsFloat32()[0]; !almostEqual(got, float32(want), 1e-5) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCrossEntropy_ConfidentPrediction(t *testing.T) {
	backend := New()

	// A large margin on the target class drives the loss toward zero.
	logits := newFloat32(t, tensor.Shape{1, 3}, []float32{20, 0, 0})
	targets := tensor.MustNewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
	targets.AsInt32()[0] = 0

	result := backend.CrossEntropy(logits, targets)
	if got := result.AsFloat32()[0]; got < 0 || got > 1e-3 {
		t.Errorf("Expected near-zero loss, got %v", got)
	}
}

func TestCrossEntropy_LargeLogitsStable(t *testing.T) {
	backend := New()

	logits := newFloat32(t, tensor.Shape{1, 2}, []float32{1000, 999})
	targets := tensor.MustNewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
	targets.AsInt32()[0] = 0

	result := backend.CrossEntropy(logits, targets)
	got := float64(result.AsFloat32()[0])
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("Expected finite loss, got %v", got)
	}
	// loss = log(1 + e^-1)
	want := math.Log(1 + math.Exp(-1))
	if !almostEqual(float32(got), float32(want), 1e-5) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCrossEntropy_Float64(t *testing.T) {
	backend := New()

	logits := tensor.MustNewRaw(tensor.Shape{1, 2}, tensor.Float64, tensor.CPU)
	copy(logits.AsFloat64(), []float64{0, 0})
	targets := tensor.MustNewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)

	result := backend.CrossEntropy(logits, targets)
	if got := result.AsFloat64()[0]; math.Abs(got-math.Log(2)) > 1e-12 {
		t.Errorf("Expected ln(2), got %v", got)
	}
}

func TestCrossEntropy_TargetOutOfRangePanics(t *testing.T) {
	backend := New()

	logits := tensor.MustNewRaw(tensor.Shape{1, 3}, tensor.Float32, tensor.CPU)
	targets := tensor.MustNewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
	targets.AsInt32()[0] = 5

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for out-of-range target")
		}
	}()

	backend.CrossEntropy(logits, targets)
}

func TestCrossEntropy_FloatTargetsPanics(t *testing.T) {
	backend := New()

	logits := tensor.MustNewRaw(tensor.Shape{1, 3}, tensor.Float32, tensor.CPU)
	targets := tensor.MustNewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for float targets")
		}
	}()

	backend.CrossEntropy(logits, targets)
}

func TestCrossEntropy_3DLogitsPanics(t *testing.T) {
	backend := New()

	logits := tensor.MustNewRaw(tensor.Shape{1, 2, 3}, tensor.Float32, tensor.CPU)
	targets := tensor.MustNewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for 3D logits")
		}
	}()

	backend.CrossEntropy(logits, targets)
}
