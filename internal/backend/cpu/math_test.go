package cpu

import (
	"math"
	"testing"

	"github.com/kiln-ml/kiln/internal/tensor"
)

func TestExp(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{3}, []float32{0, 1, -1})

	result := backend.Exp(x)

	expected := []float32{1, float32(math.E), float32(1 / math.E)}
	for i, want := range expected {
		if got := result.AsFloat32()[i]; !almostEqual(got, want, 1e-6) {
			t.Errorf("Index %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestLog(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{3}, []float32{1, float32(math.E), 10})

	result := backend.Log(x)

	expected := []float32{0, 1, float32(math.Log(10))}
	for i, want := range expected {
		if got := result.AsFloat32()[i]; !almostEqual(got, want, 1e-6) {
			t.Errorf("Index %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestLog_ZeroGivesNegInf(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{1}, []float32{0})

	result := backend.Log(x)
	if got := result.AsFloat32()[0]; !math.IsInf(float64(got), -1) {
		t.Errorf("Expected -Inf for log(0), got %v", got)
	}
}

func TestExp_IntPanics(t *testing.T) {
	backend := New()

	x := tensor.MustNewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for int dtype")
		}
	}()

	backend.Exp(x)
}

func TestReLU(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{5}, []float32{-2, -0.5, 0, 0.5, 2})

	result := backend.ReLU(x)

	expected := []float32{0, 0, 0, 0.5, 2}
	for i, want := range expected {
		if got := result.AsFloat32()[i]; got != want {
			t.Errorf("Index %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestSigmoid(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{3}, []float32{0, 2, -2})

	result := backend.Sigmoid(x)
	data := result.AsFloat32()

	if !almostEqual(data[0], 0.5, 1e-6) {
		t.Errorf("Expected sigmoid(0) = 0.5, got %v", data[0])
	}
	// sigmoid(-x) == 1 - sigmoid(x)
	if !almostEqual(data[1]+data[2], 1, 1e-6) {
		t.Errorf("Expected sigmoid(2) + sigmoid(-2) = 1, got %v", data[1]+data[2])
	}
}

func TestTanh(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{3}, []float32{0, 1, -1})

	result := backend.Tanh(x)
	data := result.AsFloat32()

	if data[0] != 0 {
		t.Errorf("Expected tanh(0) = 0, got %v", data[0])
	}
	if !almostEqual(data[1], float32(math.Tanh(1)), 1e-6) {
		t.Errorf("Expected tanh(1), got %v", data[1])
	}
	if !almostEqual(data[1]+data[2], 0, 1e-6) {
		t.Errorf("Expected tanh odd symmetry, got %v and %v", data[1], data[2])
	}
}

func TestSoftmax_RowsSumToOne(t *testing.T) {
	backend := New()

	x := newFloat32(t, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, -1, 0, 1, 2})

	result := backend.Softmax(x)
	data := result.AsFloat32()

	for r := 0; r < 2; r++ {
		var sum float32
		for j := 0; j < 4; j++ {
			v := data[r*4+j]
			if v <= 0 || v >= 1 {
				t.Errorf("Row %d: probability out of (0, 1): %v", r, v)
			}
			sum += v
		}
		if !almostEqual(sum, 1, 1e-5) {
			t.Errorf("Row %d: expected sum 1, got %v", r, sum)
		}
	}
}

func TestSoftmax_KnownValues(t *testing.T) {
	backend := New()

	// Equal logits give uniform probabilities.
	x := newFloat32(t, tensor.Shape{1, 4}, []float32{3, 3, 3, 3})

	result := backend.Softmax(x)
	for i, v := range result.AsFloat32() {
		if !almostEqual(v, 0.25, 1e-6) {
			t.Errorf("Index %d: expected 0.25, got %v", i, v)
		}
	}
}

func TestSoftmax_LargeLogitsStable(t *testing.T) {
	backend := New()

	// Without the max shift these would overflow to +Inf.
	x := newFloat32(t, tensor.Shape{1, 3}, []float32{1000, 1001, 1002})

	result := backend.Softmax(x)
	var sum float32
	for _, v := range result.AsFloat32() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("Expected finite probability, got %v", v)
		}
		sum += v
	}
	if !almostEqual(sum, 1, 1e-5) {
		t.Errorf("Expected sum 1, got %v", sum)
	}
}

func TestSoftmax_ManyRowsParallel(t *testing.T) {
	backend := New()

	// Enough rows to fan out across workers.
	const rows, width = 512, 8
	x := tensor.MustNewRaw(tensor.Shape{rows, width}, tensor.Float32, tensor.CPU)
	data := x.AsFloat32()
	for i := range data {
		data[i] = float32(i % 13)
	}

	result := backend.Softmax(x)
	out := result.AsFloat32()
	for r := 0; r < rows; r++ {
		var sum float32
		for j := 0; j < width; j++ {
			sum += out[r*width+j]
		}
		if !almostEqual(sum, 1, 1e-5) {
			t.Fatalf("Row %d: expected sum 1, got %v", r, sum)
		}
	}
}
