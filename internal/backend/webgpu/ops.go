//go:build windows

package webgpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Add performs element-wise addition. Same-shape float32 operands run
// on the GPU; broadcasting and the remaining dtypes run on the host.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !sameShapeFloat32(a, other) {
		return b.host.Add(a, other).ToDevice(tensor.WebGPU)
	}
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !sameShapeFloat32(a, other) {
		return b.host.Sub(a, other).ToDevice(tensor.WebGPU)
	}
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !sameShapeFloat32(a, other) {
		return b.host.Mul(a, other).ToDevice(tensor.WebGPU)
	}
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !sameShapeFloat32(a, other) {
		return b.host.Div(a, other).ToDevice(tensor.WebGPU)
	}
	result, err := b.runBinaryOp(a, other, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuFloat32(a, other) || len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		return b.host.MatMul(a, other).ToDevice(tensor.WebGPU)
	}
	result, err := b.runMatMul(a, other)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// AddScalar adds a scalar to each element. The scalar may be any Go
// numeric value.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if !gpuFloat32(x) {
		return b.host.AddScalar(x, scalar).ToDevice(tensor.WebGPU)
	}
	result, err := b.runScalarOp(x, float32(tensor.ScalarAsFloat64(scalar)), "scalar_add", scalarAddShader)
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

// MulScalar multiplies each element by a scalar.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if !gpuFloat32(x) {
		return b.host.MulScalar(x, scalar).ToDevice(tensor.WebGPU)
	}
	result, err := b.runScalarOp(x, float32(tensor.ScalarAsFloat64(scalar)), "scalar_mul", scalarMulShader)
	if err != nil {
		panic("webgpu: MulScalar: " + err.Error())
	}
	return result
}

// Exp computes e^x element-wise.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, "exp", expShader)
}

// Log computes the natural logarithm element-wise.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, "log", logShader)
}

// ReLU computes max(0, x) element-wise.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, "relu", reluShader)
}

// Sigmoid computes 1/(1+exp(-x)) element-wise.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, "sigmoid", sigmoidShader)
}

// Tanh computes the hyperbolic tangent element-wise.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, "tanh", tanhShader)
}

// unary dispatches a one-input element-wise kernel for float32 input
// and routes everything else (float64 mainly) to the host.
func (b *Backend) unary(x *tensor.RawTensor, name, code string) *tensor.RawTensor {
	if !gpuFloat32(x) {
		return b.hostUnary(x, name)
	}
	result, err := b.runUnaryOp(x, name, code)
	if err != nil {
		panic("webgpu: " + name + ": " + err.Error())
	}
	return result
}

func (b *Backend) hostUnary(x *tensor.RawTensor, name string) *tensor.RawTensor {
	var result *tensor.RawTensor
	switch name {
	case "exp":
		result = b.host.Exp(x)
	case "log":
		result = b.host.Log(x)
	case "relu":
		result = b.host.ReLU(x)
	case "sigmoid":
		result = b.host.Sigmoid(x)
	case "tanh":
		result = b.host.Tanh(x)
	default:
		panic("webgpu: unknown unary op " + name)
	}
	return result.ToDevice(tensor.WebGPU)
}

// Softmax normalizes along the last dimension. Any rank works: the
// rows of the flattened [rows, width] view are independent threads.
func (b *Backend) Softmax(x *tensor.RawTensor) *tensor.RawTensor {
	if !gpuFloat32(x) || len(x.Shape()) == 0 {
		return b.host.Softmax(x).ToDevice(tensor.WebGPU)
	}
	result, err := b.runSoftmax(x)
	if err != nil {
		panic("webgpu: Softmax: " + err.Error())
	}
	return result
}

// Reshape returns a tensor with the same elements and a new shape.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("webgpu: reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("webgpu: reshape: cannot reshape %v into %v (different number of elements)",
			t.Shape(), newShape))
	}

	result := tensor.MustNewRaw(newShape, t.DType(), tensor.WebGPU)
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the tensor's dimensions. The plain 2D flip runs on
// the GPU; general axis permutations run on the host.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	if gpuFloat32(t) && len(t.Shape()) == 2 && flip2D(axes) {
		result, err := b.runTranspose(t)
		if err != nil {
			panic("webgpu: Transpose: " + err.Error())
		}
		return result
	}
	return b.host.Transpose(t, axes...).ToDevice(tensor.WebGPU)
}

// Sum computes the sum of all elements as a rank-0 scalar tensor.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	if !gpuFloat32(x) {
		return b.host.Sum(x).ToDevice(tensor.WebGPU)
	}
	result, err := b.runSum(x)
	if err != nil {
		panic("webgpu: Sum: " + err.Error())
	}
	return result
}

// Mean computes the mean of all elements as a rank-0 scalar tensor.
func (b *Backend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	if !gpuFloat32(x) {
		return b.host.Mean(x).ToDevice(tensor.WebGPU)
	}
	result, err := b.runSum(x)
	if err != nil {
		panic("webgpu: Mean: " + err.Error())
	}
	result.AsFloat32()[0] /= float32(x.NumElements())
	return result
}

// SumDim sums along dim; keepDim keeps the reduced dimension with size
// 1. The last dimension is a contiguous row reduction and runs on the
// GPU; other dims run on the host.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if !lastDim(x, dim) {
		return b.host.SumDim(x, dim, keepDim).ToDevice(tensor.WebGPU)
	}
	result, err := b.runSumRows(x, reducedLastDim(x.Shape(), keepDim))
	if err != nil {
		panic("webgpu: SumDim: " + err.Error())
	}
	return result
}

// MeanDim computes the mean along dim.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if !lastDim(x, dim) {
		return b.host.MeanDim(x, dim, keepDim).ToDevice(tensor.WebGPU)
	}
	result, err := b.runSumRows(x, reducedLastDim(x.Shape(), keepDim))
	if err != nil {
		panic("webgpu: MeanDim: " + err.Error())
	}

	width := float32(x.Shape()[len(x.Shape())-1])
	data := result.AsFloat32()
	for i := range data {
		data[i] /= width
	}
	return result
}

// Argmax returns the Int32 indices of the maxima along dim; ties
// resolve to the first index.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if !lastDim(x, dim) {
		return b.host.Argmax(x, dim).ToDevice(tensor.WebGPU)
	}
	result, err := b.runArgmax(x, reducedLastDim(x.Shape(), false))
	if err != nil {
		panic("webgpu: Argmax: " + err.Error())
	}
	return result
}

// Embedding gathers rows of weight by index: output[i] = weight[indices[i]].
// Out-of-range indices take the host path and its bounds panic rather
// than the shader's silent zero-fill.
func (b *Backend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if gpuFloat32(weight) && len(weight.Shape()) == 2 &&
		indices.DType() == tensor.Int32 && indices.NumElements() > 0 &&
		indicesInRange(indices.AsInt32(), weight.Shape()[0]) {
		result, err := b.runEmbedding(weight, indices)
		if err != nil {
			panic("webgpu: Embedding: " + err.Error())
		}
		return result
	}
	return b.host.Embedding(weight, indices).ToDevice(tensor.WebGPU)
}

// CrossEntropy computes the mean negative log-likelihood over softmaxed
// logits. Runs on the host; the fused label-indexed reduction has no
// shader.
func (b *Backend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	return b.host.CrossEntropy(logits, targets).ToDevice(tensor.WebGPU)
}

// Cast converts the tensor to dtype on the host; the shaders only see
// float32 data.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return b.host.Cast(x, dtype).ToDevice(tensor.WebGPU)
}

// gpuFloat32 reports whether every tensor is float32 and non-empty, the
// baseline requirement for shader dispatch.
func gpuFloat32(ts ...*tensor.RawTensor) bool {
	for _, t := range ts {
		if t.DType() != tensor.Float32 || t.NumElements() == 0 {
			return false
		}
	}
	return true
}

func sameShapeFloat32(a, other *tensor.RawTensor) bool {
	return gpuFloat32(a, other) && a.Shape().Equal(other.Shape())
}

// flip2D reports whether axes describe the plain 2D transpose.
func flip2D(axes []int) bool {
	return len(axes) == 0 || (len(axes) == 2 && axes[0] == 1 && axes[1] == 0)
}

// lastDim reports whether dim resolves to x's last dimension and the
// tensor qualifies for dispatch.
func lastDim(x *tensor.RawTensor, dim int) bool {
	ndim := len(x.Shape())
	if dim < 0 {
		dim += ndim
	}
	return gpuFloat32(x) && ndim > 0 && dim == ndim-1
}

// reducedLastDim drops the last dimension, or keeps it with size 1.
func reducedLastDim(shape tensor.Shape, keepDim bool) tensor.Shape {
	out := shape.Clone()
	if keepDim {
		out[len(out)-1] = 1
		return out
	}
	return out[:len(out)-1]
}

// indicesInRange scans embedding indices for out-of-range rows.
func indicesInRange(idx []int32, rows int) bool {
	for _, i := range idx {
		if int(i) < 0 || int(i) >= rows {
			return false
		}
	}
	return true
}
