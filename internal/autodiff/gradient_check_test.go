package autodiff_test

import (
	"math"
	"testing"

	"github.com/kiln-ml/kiln/internal/autodiff"
	"github.com/kiln-ml/kiln/internal/backend/cpu"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// numericGrad perturbs each element of x in place and re-runs forward,
// approximating dloss/dx by central differences.
func numericGrad(x *tensor.RawTensor, eps float32, forward func() float32) []float32 {
	data := x.AsFloat32()
	grads := make([]float32, len(data))
	for i := range data {
		orig := data[i]
		data[i] = orig + eps
		plus := forward()
		data[i] = orig - eps
		minus := forward()
		data[i] = orig
		grads[i] = (plus - minus) / (2 * eps)
	}
	return grads
}

func compareGrads(t *testing.T, name string, analytic, numeric []float32, tol float64) {
	t.Helper()
	if len(analytic) != len(numeric) {
		t.Fatalf("%s: analytic has %d values, numeric %d", name, len(analytic), len(numeric))
	}
	for i := range numeric {
		if math.Abs(float64(analytic[i]-numeric[i])) > tol {
			t.Errorf("%s[%d]: analytic %v vs numeric %v", name, i, analytic[i], numeric[i])
		}
	}
}

// leaf builds a pinned float32 tensor. Pinning keeps every backend call
// in the test, recorded or not, from overwriting the leaf in place.
func leaf(t *testing.T, data []float32, shape tensor.Shape, b tensor.Backend) *tensor.RawTensor {
	t.Helper()
	raw := tensor.MustNewRaw(shape, tensor.Float32, b.Device())
	copy(raw.AsFloat32(), data)
	t.Cleanup(raw.ForceNonUnique())
	return raw
}

func TestGradCheck_Affine(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)

	x := leaf(t, []float32{0.5, -1.2, 0.8, 1.5, 0.3, -0.7}, tensor.Shape{2, 3}, inner)
	w := leaf(t, []float32{0.2, -0.5, 1.0, 0.7, -0.3, 0.4}, tensor.Shape{3, 2}, inner)
	bias := leaf(t, []float32{0.1, -0.2}, tensor.Shape{2}, inner)

	backend.Tape().StartRecording()
	loss := backend.Sum(backend.Add(backend.MatMul(x, w), bias))
	grads := autodiff.Backward(tensor.New[float32](loss, backend), backend)

	forward := func() float32 {
		return inner.Sum(inner.Add(inner.MatMul(x, w), bias)).AsFloat32()[0]
	}

	compareGrads(t, "grad_x", grads[x].AsFloat32(), numericGrad(x, 1e-2, forward), 1e-2)
	compareGrads(t, "grad_w", grads[w].AsFloat32(), numericGrad(w, 1e-2, forward), 1e-2)
	compareGrads(t, "grad_bias", grads[bias].AsFloat32(), numericGrad(bias, 1e-2, forward), 1e-2)
}

func TestGradCheck_SigmoidLayer(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)

	x := leaf(t, []float32{0.5, -0.8, 1.2, 0.1}, tensor.Shape{2, 2}, inner)
	w := leaf(t, []float32{0.6, -0.4, 0.9, 0.3}, tensor.Shape{2, 2}, inner)

	backend.Tape().StartRecording()
	loss := backend.Sum(backend.Sigmoid(backend.MatMul(x, w)))
	grads := autodiff.Backward(tensor.New[float32](loss, backend), backend)

	forward := func() float32 {
		return inner.Sum(inner.Sigmoid(inner.MatMul(x, w))).AsFloat32()[0]
	}

	compareGrads(t, "grad_x", grads[x].AsFloat32(), numericGrad(x, 1e-2, forward), 1e-2)
	compareGrads(t, "grad_w", grads[w].AsFloat32(), numericGrad(w, 1e-2, forward), 1e-2)
}

func TestGradCheck_TanhExpLog(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)

	// loss = sum(log(exp(tanh(x)) + 1)): a smooth chain through three
	// unary nodes and a scalar shift.
	x := leaf(t, []float32{-1.5, -0.2, 0.4, 1.1}, tensor.Shape{4}, inner)

	backend.Tape().StartRecording()
	loss := backend.Sum(backend.Log(backend.AddScalar(backend.Exp(backend.Tanh(x)), 1.0)))
	grads := autodiff.Backward(tensor.New[float32](loss, backend), backend)

	forward := func() float32 {
		return inner.Sum(inner.Log(inner.AddScalar(inner.Exp(inner.Tanh(x)), 1.0))).AsFloat32()[0]
	}

	compareGrads(t, "grad_x", grads[x].AsFloat32(), numericGrad(x, 1e-2, forward), 1e-2)
}

func TestGradCheck_Division(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)

	a := leaf(t, []float32{1.5, -2.0, 0.7}, tensor.Shape{3}, inner)
	b := leaf(t, []float32{0.8, 1.2, -1.6}, tensor.Shape{3}, inner)

	backend.Tape().StartRecording()
	loss := backend.Mean(backend.Div(a, b))
	grads := autodiff.Backward(tensor.New[float32](loss, backend), backend)

	forward := func() float32 {
		return inner.Mean(inner.Div(a, b)).AsFloat32()[0]
	}

	compareGrads(t, "grad_a", grads[a].AsFloat32(), numericGrad(a, 1e-3, forward), 1e-2)
	compareGrads(t, "grad_b", grads[b].AsFloat32(), numericGrad(b, 1e-3, forward), 1e-2)
}

func TestGradCheck_Softmax(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)

	x := leaf(t, []float32{0.5, -0.3, 1.2, -0.8, 0.1, 0.9}, tensor.Shape{2, 3}, inner)
	c := leaf(t, []float32{1, -2, 0.5, 3, -1, 2}, tensor.Shape{2, 3}, inner)

	backend.Tape().StartRecording()
	loss := backend.Sum(backend.Mul(backend.Softmax(x), c))
	grads := autodiff.Backward(tensor.New[float32](loss, backend), backend)

	forward := func() float32 {
		return inner.Sum(inner.Mul(inner.Softmax(x), c)).AsFloat32()[0]
	}

	compareGrads(t, "grad_x", grads[x].AsFloat32(), numericGrad(x, 1e-2, forward), 1e-2)
}

func TestGradCheck_CrossEntropy(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)

	logits := leaf(t, []float32{
		0.5, -0.3, 1.2, 0.1,
		-0.8, 0.4, 0.0, 0.9,
		1.5, -1.0, 0.3, -0.2,
	}, tensor.Shape{3, 4}, inner)

	targets := tensor.MustNewRaw(tensor.Shape{3}, tensor.Int32, inner.Device())
	copy(targets.AsInt32(), []int32{1, 3, 0})

	backend.Tape().StartRecording()
	loss := backend.CrossEntropy(logits, targets)
	grads := autodiff.Backward(tensor.New[float32](loss, backend), backend)

	forward := func() float32 {
		return inner.CrossEntropy(logits, targets).AsFloat32()[0]
	}

	compareGrads(t, "grad_logits", grads[logits].AsFloat32(), numericGrad(logits, 1e-2, forward), 1e-2)
}

func TestGradCheck_SumDimOfSquare(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)

	x := leaf(t, []float32{0.3, -1.1, 0.7, 2.0, -0.4, 0.9}, tensor.Shape{2, 3}, inner)

	backend.Tape().StartRecording()
	loss := backend.Mean(backend.SumDim(backend.Mul(x, x), 1, false))
	grads := autodiff.Backward(tensor.New[float32](loss, backend), backend)

	forward := func() float32 {
		return inner.Mean(inner.SumDim(inner.Mul(x, x), 1, false)).AsFloat32()[0]
	}

	compareGrads(t, "grad_x", grads[x].AsFloat32(), numericGrad(x, 1e-2, forward), 1e-2)
}

func TestGradCheck_Embedding(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)

	weight := leaf(t, []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, tensor.Shape{3, 2}, inner)
	c := leaf(t, []float32{1, -1, 2, 0.5, -2, 1}, tensor.Shape{3, 2}, inner)

	indices := tensor.MustNewRaw(tensor.Shape{3}, tensor.Int32, inner.Device())
	copy(indices.AsInt32(), []int32{0, 1, 0})

	backend.Tape().StartRecording()
	loss := backend.Sum(backend.Mul(backend.Embedding(weight, indices), c))
	grads := autodiff.Backward(tensor.New[float32](loss, backend), backend)

	forward := func() float32 {
		return inner.Sum(inner.Mul(inner.Embedding(weight, indices), c)).AsFloat32()[0]
	}

	compareGrads(t, "grad_weight", grads[weight].AsFloat32(), numericGrad(weight, 1e-2, forward), 1e-2)
}

func TestGradCheck_BroadcastMul(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)

	// A [3] row scales both rows of a [2,3] matrix; its gradient sums
	// over the broadcast dimension.
	x := leaf(t, []float32{0.5, -1.2, 0.8, 1.5, 0.3, -0.7}, tensor.Shape{2, 3}, inner)
	row := leaf(t, []float32{1.5, -0.5, 2.0}, tensor.Shape{3}, inner)

	backend.Tape().StartRecording()
	loss := backend.Sum(backend.Mul(x, row))
	grads := autodiff.Backward(tensor.New[float32](loss, backend), backend)

	forward := func() float32 {
		return inner.Sum(inner.Mul(x, row)).AsFloat32()[0]
	}

	compareGrads(t, "grad_x", grads[x].AsFloat32(), numericGrad(x, 1e-2, forward), 1e-2)
	compareGrads(t, "grad_row", grads[row].AsFloat32(), numericGrad(row, 1e-2, forward), 1e-2)
}
