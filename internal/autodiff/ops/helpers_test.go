package ops

import (
	"testing"

	"github.com/kiln-ml/kiln/internal/backend/cpu"
	"github.com/kiln-ml/kiln/internal/tensor"
)

func rawF32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw := tensor.MustNewRaw(shape, tensor.Float32, tensor.CPU)
	copy(raw.AsFloat32(), data)
	return raw
}

func TestReduceBroadcast_LeadingDim(t *testing.T) {
	backend := cpu.New()
	grad := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	got := reduceBroadcast(grad, tensor.Shape{3}, backend)

	if !got.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("shape = %v, want [3]", got.Shape())
	}
	want := []float32{5, 7, 9}
	for i, v := range got.AsFloat32() {
		if v != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestReduceBroadcast_KeptDim(t *testing.T) {
	backend := cpu.New()
	grad := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	got := reduceBroadcast(grad, tensor.Shape{2, 1}, backend)

	if !got.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("shape = %v, want [2 1]", got.Shape())
	}
	want := []float32{6, 15}
	for i, v := range got.AsFloat32() {
		if v != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestReduceBroadcast_ToScalar(t *testing.T) {
	backend := cpu.New()
	grad := rawF32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})

	got := reduceBroadcast(grad, tensor.Shape{}, backend)

	if len(got.Shape()) != 0 {
		t.Fatalf("shape = %v, want scalar", got.Shape())
	}
	if got.AsFloat32()[0] != 10 {
		t.Errorf("result = %v, want 10", got.AsFloat32()[0])
	}
}

func TestReduceBroadcast_EqualShapesReturnsOwnTensor(t *testing.T) {
	backend := cpu.New()
	grad := rawF32(t, tensor.Shape{2}, []float32{1, 2})

	got := reduceBroadcast(grad, tensor.Shape{2}, backend)

	if got == grad {
		t.Error("equal shapes should still return a tensor the caller owns")
	}
	if got.AsFloat32()[0] != 1 || got.AsFloat32()[1] != 2 {
		t.Errorf("values changed: %v", got.AsFloat32())
	}
}

func TestExpandDim_Middle(t *testing.T) {
	grad := rawF32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})

	got := expandDim(grad, tensor.Shape{2, 3, 2}, 1, 1)

	if !got.Shape().Equal(tensor.Shape{2, 3, 2}) {
		t.Fatalf("shape = %v, want [2 3 2]", got.Shape())
	}
	want := []float32{1, 2, 1, 2, 1, 2, 3, 4, 3, 4, 3, 4}
	for i, v := range got.AsFloat32() {
		if v != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestExpandDim_Scaled(t *testing.T) {
	grad := rawF32(t, tensor.Shape{2}, []float32{3, 6})

	// A mean over a dim of size 3 spreads each gradient at weight 1/3.
	got := expandDim(grad, tensor.Shape{2, 3}, 1, 1.0/3.0)

	want := []float32{1, 1, 1, 2, 2, 2}
	for i, v := range got.AsFloat32() {
		if v != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestExpandDim_NegativeDim(t *testing.T) {
	grad := rawF32(t, tensor.Shape{2}, []float32{1, 2})

	got := expandDim(grad, tensor.Shape{2, 2}, -1, 1)

	want := []float32{1, 1, 2, 2}
	for i, v := range got.AsFloat32() {
		if v != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestFillLike(t *testing.T) {
	x := rawF32(t, tensor.Shape{2, 2}, []float32{9, 9, 9, 9})

	got := fillLike(x, 0.5)

	for i, v := range got.AsFloat32() {
		if v != 0.5 {
			t.Errorf("result[%d] = %v, want 0.5", i, v)
		}
	}
	if x.AsFloat32()[0] != 9 {
		t.Error("fillLike should not touch its template")
	}
}
