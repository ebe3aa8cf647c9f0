package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - CPU: pure Go kernels with parallel execution
//   - WebGPU: GPU compute via WGSL shaders (windows)
//
// Decorator backends:
//   - autodiff: records every differentiable operation onto a gradient
//     tape; its method set is exactly this interface, which is why the
//     interface stays small. Anything a backend exposes here must either
//     be differentiable (and get a recorded operation) or be explicitly
//     gradient-free (Argmax, Cast).
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations (2-D).
	MatMul(a, b *RawTensor) *RawTensor

	// Scalar operations (element-wise with a scalar; scalar is any
	// numeric Go value convertible to the tensor's dtype).
	AddScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor

	// Activation functions.
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Softmax(x *RawTensor) *RawTensor // along the last dimension

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor                            // total sum, scalar result
	Mean(x *RawTensor) *RawTensor                           // total mean, scalar result
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // sum along dimension
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // mean along dimension
	Argmax(x *RawTensor, dim int) *RawTensor                // Int32 indices of maxima along dimension

	// Indexing operations.
	Embedding(weight, indices *RawTensor) *RawTensor // row lookup: weight[indices]

	// Fused loss.
	CrossEntropy(logits, targets *RawTensor) *RawTensor // mean NLL over softmaxed logits, scalar result

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
