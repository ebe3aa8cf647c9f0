package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a naive reference backend for tests inside this package
// (real backends live downstream of tensor and cannot be imported here).
// Every operation is implemented directly, with float64 arithmetic, for
// correctness rather than speed.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x / y })
}

// MatMul performs naive 2-D matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic("MatMul requires 2D tensors")
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("incompatible shapes for MatMul: %v @ %v", aShape, bShape))
	}

	M, K, N := aShape[0], aShape[1], bShape[1]
	result := MustNewRaw(Shape{M, N}, a.DType(), m.Device())

	aData := m.toFloat64(a)
	bData := m.toFloat64(b)
	out := make([]float64, M*N)
	for i := 0; i < M; i++ {
		for j := 0; j < N; j++ {
			sum := 0.0
			for k := 0; k < K; k++ {
				sum += aData[i*K+k] * bData[k*N+j]
			}
			out[i*N+j] = sum
		}
	}
	m.fromFloat64(out, result)
	return result
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := ScalarAsFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v + s })
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := ScalarAsFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v * s })
}

// Exp computes the element-wise exponential.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.unary(x, math.Exp)
}

// Log computes the element-wise natural logarithm.
func (m *MockBackend) Log(x *RawTensor) *RawTensor {
	return m.unary(x, math.Log)
}

// ReLU applies max(0, x) element-wise.
func (m *MockBackend) ReLU(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return math.Max(0, v) })
}

// Sigmoid applies the logistic function element-wise.
func (m *MockBackend) Sigmoid(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return 1 / (1 + math.Exp(-v)) })
}

// Tanh applies the hyperbolic tangent element-wise.
func (m *MockBackend) Tanh(x *RawTensor) *RawTensor {
	return m.unary(x, math.Tanh)
}

// Softmax normalizes along the last dimension (max-shifted for
// stability).
func (m *MockBackend) Softmax(x *RawTensor) *RawTensor {
	shape := x.Shape()
	if len(shape) == 0 {
		panic("Softmax requires at least 1 dimension")
	}
	inner := shape[len(shape)-1]
	outer := x.NumElements() / max(inner, 1)

	result := MustNewRaw(shape, x.DType(), m.Device())
	data := m.toFloat64(x)
	out := make([]float64, len(data))

	for o := 0; o < outer; o++ {
		row := data[o*inner : (o+1)*inner]
		maxV := math.Inf(-1)
		for _, v := range row {
			maxV = math.Max(maxV, v)
		}
		sum := 0.0
		for i, v := range row {
			e := math.Exp(v - maxV)
			out[o*inner+i] = e
			sum += e
		}
		for i := range row {
			out[o*inner+i] /= sum
		}
	}
	m.fromFloat64(out, result)
	return result
}

// Reshape changes the tensor shape; element count must match.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(err)
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("cannot reshape tensor with %d elements to shape %v (%d elements)",
			t.NumElements(), newShape, newShape.NumElements()))
	}
	result := MustNewRaw(newShape, t.DType(), m.Device())
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes dimensions (all reversed when axes is empty).
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()

	if len(axes) == 0 {
		axes = make([]int, len(shape))
		for i := range axes {
			axes[i] = len(shape) - 1 - i
		}
	}
	if len(axes) != len(shape) {
		panic(fmt.Sprintf("axes length %d doesn't match tensor dimensions %d", len(axes), len(shape)))
	}

	newShape := make(Shape, len(shape))
	for i, axis := range axes {
		if axis < 0 || axis >= len(shape) {
			panic(fmt.Sprintf("axis %d out of bounds for tensor with %d dimensions", axis, len(shape)))
		}
		newShape[i] = shape[axis]
	}

	result := MustNewRaw(newShape, t.DType(), m.Device())
	tData := m.toFloat64(t)
	out := make([]float64, len(tData))

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	for i := 0; i < t.NumElements(); i++ {
		indices := make([]int, len(shape))
		temp := i
		for j := 0; j < len(shape); j++ {
			indices[j] = temp / oldStrides[j]
			temp %= oldStrides[j]
		}

		newIdx := 0
		for j, axis := range axes {
			newIdx += indices[axis] * newStrides[j]
		}
		out[newIdx] = tData[i]
	}
	m.fromFloat64(out, result)
	return result
}

// Sum reduces all elements to a scalar tensor (0 for empty input).
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	result := MustNewRaw(Shape{}, x.DType(), m.Device())
	sum := 0.0
	for _, v := range m.toFloat64(x) {
		sum += v
	}
	m.fromFloat64([]float64{sum}, result)
	return result
}

// Mean reduces all elements to their scalar mean (NaN for empty input).
func (m *MockBackend) Mean(x *RawTensor) *RawTensor {
	result := MustNewRaw(Shape{}, x.DType(), m.Device())
	sum := 0.0
	for _, v := range m.toFloat64(x) {
		sum += v
	}
	m.fromFloat64([]float64{sum / float64(x.NumElements())}, result)
	return result
}

// SumDim sums along dim.
func (m *MockBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, false)
}

// MeanDim averages along dim.
func (m *MockBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, true)
}

func (m *MockBackend) reduceDim(x *RawTensor, dim int, keepDim, mean bool) *RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("reduction dim %d out of range for shape %v", dim, shape))
	}

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	n := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	outShape := reducedShape(shape, dim, keepDim)
	result := MustNewRaw(outShape, x.DType(), m.Device())
	data := m.toFloat64(x)
	out := make([]float64, outer*inner)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += data[(o*n+k)*inner+in]
			}
			if mean {
				sum /= float64(n)
			}
			out[o*inner+in] = sum
		}
	}
	m.fromFloat64(out, result)
	return result
}

// Argmax returns Int32 indices of maxima along dim; dim is dropped from
// the result shape.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("argmax dim %d out of range for shape %v", dim, shape))
	}

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	n := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	result := MustNewRaw(reducedShape(shape, dim, false), Int32, m.Device())
	data := m.toFloat64(x)
	out := result.AsInt32()

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			best, bestIdx := math.Inf(-1), 0
			for k := 0; k < n; k++ {
				if v := data[(o*n+k)*inner+in]; v > best {
					best, bestIdx = v, k
				}
			}
			out[o*inner+in] = int32(bestIdx)
		}
	}
	return result
}

// Embedding gathers rows of weight by Int32 indices.
func (m *MockBackend) Embedding(weight, indices *RawTensor) *RawTensor {
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("Embedding weight must be 2D [vocab, dim], got %v", wShape))
	}
	idx := indices.AsInt32()

	outShape := append(indices.Shape().Clone(), wShape[1])
	result := MustNewRaw(outShape, weight.DType(), m.Device())
	wData := m.toFloat64(weight)
	out := make([]float64, result.NumElements())

	dimSize := wShape[1]
	for i, id := range idx {
		if int(id) < 0 || int(id) >= wShape[0] {
			panic(fmt.Sprintf("embedding index %d out of range [0, %d)", id, wShape[0]))
		}
		copy(out[i*dimSize:(i+1)*dimSize], wData[int(id)*dimSize:(int(id)+1)*dimSize])
	}
	m.fromFloat64(out, result)
	return result
}

// CrossEntropy computes mean negative log-likelihood of Int32 targets
// under softmaxed logits [N, C]; scalar result.
func (m *MockBackend) CrossEntropy(logits, targets *RawTensor) *RawTensor {
	lShape := logits.Shape()
	if len(lShape) != 2 {
		panic(fmt.Sprintf("CrossEntropy logits must be 2D [batch, classes], got %v", lShape))
	}
	n, classes := lShape[0], lShape[1]
	tgt := targets.AsInt32()
	if len(tgt) != n {
		panic(fmt.Sprintf("CrossEntropy: %d targets for %d rows", len(tgt), n))
	}

	data := m.toFloat64(logits)
	total := 0.0
	for i := 0; i < n; i++ {
		row := data[i*classes : (i+1)*classes]
		maxV := math.Inf(-1)
		for _, v := range row {
			maxV = math.Max(maxV, v)
		}
		sum := 0.0
		for _, v := range row {
			sum += math.Exp(v - maxV)
		}
		logSumExp := maxV + math.Log(sum)
		total += logSumExp - row[tgt[i]]
	}

	result := MustNewRaw(Shape{}, logits.DType(), m.Device())
	m.fromFloat64([]float64{total / float64(n)}, result)
	return result
}

// Cast converts element types through float64 (bool: nonzero ↔ true).
func (m *MockBackend) Cast(x *RawTensor, dtype DataType) *RawTensor {
	result := MustNewRaw(x.Shape(), dtype, m.Device())
	m.fromFloat64(m.toFloat64(x), result)
	return result
}

// helpers

func (m *MockBackend) unary(x *RawTensor, op func(float64) float64) *RawTensor {
	result := MustNewRaw(x.Shape(), x.DType(), m.Device())
	data := m.toFloat64(x)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = op(v)
	}
	m.fromFloat64(out, result)
	return result
}

func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result := MustNewRaw(outShape, a.DType(), m.Device())
	numElements := outShape.NumElements()
	aData := m.toFloat64(a)
	bData := m.toFloat64(b)
	out := make([]float64, numElements)

	for i := 0; i < numElements; i++ {
		out[i] = op(aData[broadcastIndex(i, outShape, a.Shape())], bData[broadcastIndex(i, outShape, b.Shape())])
	}
	m.fromFloat64(out, result)
	return result
}

func (m *MockBackend) toFloat64(t *RawTensor) []float64 {
	n := t.NumElements()
	dst := make([]float64, n)
	switch t.DType() {
	case Float32:
		for i, v := range t.AsFloat32() {
			dst[i] = float64(v)
		}
	case Float64:
		copy(dst, t.AsFloat64())
	case Int32:
		for i, v := range t.AsInt32() {
			dst[i] = float64(v)
		}
	case Int64:
		for i, v := range t.AsInt64() {
			dst[i] = float64(v)
		}
	case Uint8:
		for i, v := range t.AsUint8() {
			dst[i] = float64(v)
		}
	case Bool:
		for i, v := range t.AsBool() {
			if v {
				dst[i] = 1
			}
		}
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", t.DType()))
	}
	return dst
}

func (m *MockBackend) fromFloat64(src []float64, t *RawTensor) {
	switch t.DType() {
	case Float32:
		dst := t.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case Float64:
		copy(t.AsFloat64(), src)
	case Int32:
		dst := t.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case Int64:
		dst := t.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	case Uint8:
		dst := t.AsUint8()
		for i, v := range src {
			dst[i] = uint8(v)
		}
	case Bool:
		dst := t.AsBool()
		for i, v := range src {
			dst[i] = v != 0
		}
	}
}

// broadcastIndex maps a flat index in outShape back to the flat index of
// the (possibly smaller) inShape under broadcasting.
func broadcastIndex(flatIdx int, outShape, inShape Shape) int {
	outStrides := outShape.ComputeStrides()
	inStrides := inShape.ComputeStrides()

	inIdx := 0
	offset := len(outShape) - len(inShape)
	temp := flatIdx
	for i := 0; i < len(outShape); i++ {
		dimIdx := temp / outStrides[i]
		temp %= outStrides[i]

		if i >= offset {
			j := i - offset
			if inShape[j] != 1 {
				inIdx += dimIdx * inStrides[j]
			}
		}
	}
	return inIdx
}

// reducedShape drops (or keeps as 1) the reduced dimension.
func reducedShape(shape Shape, dim int, keepDim bool) Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}
