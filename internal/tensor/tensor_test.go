package tensor

import (
	"math"
	"math/rand"
	"testing"
)

func floatEqual(a, b, tolerance float32) bool {
	return math.Abs(float64(a-b)) <= float64(tolerance)
}

func TestFromSlice(t *testing.T) {
	backend := NewMockBackend()

	data := []float32{1, 2, 3, 4, 5, 6}
	tensor, err := FromSlice(data, Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	if !tensor.Shape().Equal(Shape{2, 3}) {
		t.Errorf("shape = %v, want [2 3]", tensor.Shape())
	}
	if tensor.DType() != Float32 {
		t.Errorf("dtype = %s, want float32", tensor.DType())
	}
	for i, v := range tensor.Data() {
		if v != data[i] {
			t.Errorf("data[%d] = %v, want %v", i, v, data[i])
		}
	}
}

func TestFromSliceShapeMismatch(t *testing.T) {
	backend := NewMockBackend()
	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}, backend); err == nil {
		t.Error("FromSlice accepted mismatched shape")
	}
}

func TestAtSet(t *testing.T) {
	backend := NewMockBackend()
	tensor := Zeros[float32](Shape{3, 4}, backend)

	tensor.Set(42.0, 1, 2)
	if got := tensor.At(1, 2); got != 42.0 {
		t.Errorf("At(1, 2) = %v, want 42", got)
	}
	if got := tensor.At(0, 0); got != 0 {
		t.Errorf("At(0, 0) = %v, want 0", got)
	}
}

func TestAtOutOfBounds(t *testing.T) {
	backend := NewMockBackend()
	tensor := Zeros[float32](Shape{3, 4}, backend)

	defer func() {
		if recover() == nil {
			t.Error("At(5, 0) did not panic")
		}
	}()
	tensor.At(5, 0)
}

func TestItem(t *testing.T) {
	backend := NewMockBackend()

	scalar, err := FromSlice([]float32{7.5}, Shape{}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if got := scalar.Item(); got != 7.5 {
		t.Errorf("Item() = %v, want 7.5", got)
	}

	vec := Ones[float32](Shape{3}, backend)
	defer func() {
		if recover() == nil {
			t.Error("Item() on 3-element tensor did not panic")
		}
	}()
	vec.Item()
}

func TestCloneIsIndependentAfterWrite(t *testing.T) {
	backend := NewMockBackend()
	a := Ones[float32](Shape{4}, backend)
	b := a.Clone()

	if a.Raw().IsUnique() {
		t.Error("original buffer unique after clone")
	}
	b.Raw().Release()
	if !a.Raw().IsUnique() {
		t.Error("original buffer not unique after clone released")
	}
}

func TestToDeviceSharesBuffer(t *testing.T) {
	raw := MustNewRaw(Shape{3}, Float32, CPU)
	raw.AsFloat32()[0] = 7

	view := raw.ToDevice(WebGPU)
	if view.Device() != WebGPU {
		t.Errorf("device = %s, want WebGPU", view.Device())
	}
	if view.AsFloat32()[0] != 7 {
		t.Error("view does not share data")
	}
	if raw.IsUnique() {
		t.Error("buffer unique after retagged view was created")
	}
	if raw.ToDevice(CPU) != raw {
		t.Error("matching tag should return the receiver")
	}
}

func TestDetach(t *testing.T) {
	backend := NewMockBackend()
	a := Ones[float32](Shape{4}, backend).RequireGrad()
	d := a.Detach()

	if d.RequiresGrad() {
		t.Error("detached tensor still requires grad")
	}
	// Data is shared.
	a.Data()[0] = 5
	if d.Data()[0] != 5 {
		t.Error("detached tensor does not share data")
	}
}

func TestZerosOnesFull(t *testing.T) {
	backend := NewMockBackend()

	z := Zeros[float32](Shape{2, 2}, backend)
	for _, v := range z.Data() {
		if v != 0 {
			t.Fatalf("Zeros produced %v", v)
		}
	}

	o := Ones[int32](Shape{3}, backend)
	for _, v := range o.Data() {
		if v != 1 {
			t.Fatalf("Ones produced %v", v)
		}
	}

	f := Full[float64](Shape{2}, 2.5, backend)
	for _, v := range f.Data() {
		if v != 2.5 {
			t.Fatalf("Full produced %v", v)
		}
	}
}

func TestArange(t *testing.T) {
	backend := NewMockBackend()
	a := Arange[int32](2, 7, backend)

	want := []int32{2, 3, 4, 5, 6}
	if !a.Shape().Equal(Shape{5}) {
		t.Fatalf("shape = %v, want [5]", a.Shape())
	}
	for i, v := range a.Data() {
		if v != want[i] {
			t.Errorf("data[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestRandnReproducible(t *testing.T) {
	backend := NewMockBackend()

	a := Randn[float32](Shape{16}, rand.New(rand.NewSource(7)), backend)
	b := Randn[float32](Shape{16}, rand.New(rand.NewSource(7)), backend)

	for i := range a.Data() {
		if a.Data()[i] != b.Data()[i] {
			t.Fatal("same seed produced different tensors")
		}
	}
}

func TestRandRange(t *testing.T) {
	backend := NewMockBackend()
	r := Rand[float64](Shape{100}, rand.New(rand.NewSource(1)), backend)
	for _, v := range r.Data() {
		if v < 0 || v >= 1 {
			t.Fatalf("Rand value %v outside [0, 1)", v)
		}
	}
}

func TestEye(t *testing.T) {
	backend := NewMockBackend()
	e := Eye[float32](3, backend)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if got := e.At(i, j); got != want {
				t.Errorf("Eye[%d][%d] = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestZeroElementTensor(t *testing.T) {
	backend := NewMockBackend()
	z := Zeros[float32](Shape{0, 4}, backend)

	if z.NumElements() != 0 {
		t.Fatalf("NumElements = %d, want 0", z.NumElements())
	}
	if got := z.Data(); len(got) != 0 {
		t.Fatalf("Data() length = %d, want 0", len(got))
	}

	sum := z.Sum()
	if got := sum.Item(); got != 0 {
		t.Errorf("Sum of empty tensor = %v, want 0", got)
	}
}
