// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/kiln-ml/kiln/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: pure Go kernels with parallel execution
//   - backend/webgpu: GPU compute via WGSL shaders (windows)
//
// Decorator backends for additional functionality:
//   - autodiff: automatic differentiation (wraps any backend)
//
// The interface is deliberately small: everything on it is either
// differentiable (and recorded by the autodiff decorator) or explicitly
// gradient-free (Argmax, Cast).
//
// Example:
//
//	import (
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/tensor"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Uses backend.Add under the hood
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor // Element-wise addition.
	Sub(a, b *RawTensor) *RawTensor // Element-wise subtraction.
	Mul(a, b *RawTensor) *RawTensor // Element-wise multiplication.
	Div(a, b *RawTensor) *RawTensor // Element-wise division.

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor // 2-D matrix multiplication.

	// Scalar operations (element-wise with scalar).
	AddScalar(x *RawTensor, scalar any) *RawTensor // Add scalar.
	MulScalar(x *RawTensor, scalar any) *RawTensor // Multiply by scalar.

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor // Exponential.
	Log(x *RawTensor) *RawTensor // Natural logarithm.

	// Activation functions.
	ReLU(x *RawTensor) *RawTensor    // max(0, x).
	Sigmoid(x *RawTensor) *RawTensor // 1/(1+exp(-x)).
	Tanh(x *RawTensor) *RawTensor    // Hyperbolic tangent.
	Softmax(x *RawTensor) *RawTensor // Softmax along the last dimension.

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor // Reshape tensor.
	Transpose(t *RawTensor, axes ...int) *RawTensor  // Transpose dimensions.

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor                            // Total sum (scalar result).
	Mean(x *RawTensor) *RawTensor                           // Total mean (scalar result).
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // Sum along dimension.
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // Mean along dimension.
	Argmax(x *RawTensor, dim int) *RawTensor                // Index of maximum value along dimension.

	// Indexing operations.
	Embedding(weight, indices *RawTensor) *RawTensor // Lookup embeddings by indices.

	// Fused loss.
	CrossEntropy(logits, targets *RawTensor) *RawTensor // Mean NLL under softmax (scalar result).

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor // Cast to different data type.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU", "WebGPU").
	Device() Device // Device type.
}

// GradientBackend is satisfied by autodiff-decorated backends that can
// run a reverse pass from a recorded output. Tensor.Backward type-asserts
// its backend against this interface.
type GradientBackend = tensor.GradientBackend

// Compile-time check that the internal Backend satisfies the public one.
var _ Backend = tensor.Backend(nil)
