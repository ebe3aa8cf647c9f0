// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Kiln ML framework.
//
// # Overview
//
// Tensors are the fundamental data structure in Kiln. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Copy-on-write buffers, mutated in place only by a sole owner
//   - Device abstraction (CPU, WebGPU)
//
// # Basic Usage
//
//	import (
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    z := x.Add(y)
//	    result := z.MatMul(y.T())
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType constraint:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
//   - bool (boolean masks)
//
// # Device Support
//
// Tensors can reside on different devices:
//   - CPU: pure Go kernels, available everywhere
//   - WebGPU: zero-CGO GPU acceleration (windows)
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend) // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)  // (3, 4)
//	c := a.Add(b)                                           // (3, 4)
//
// # Gradients
//
// Every operation routes through the tensor's backend, so wrapping a
// backend with autodiff.New makes the same tensor code differentiable:
//
//	ad := autodiff.New(cpu.New())
//	w := tensor.Randn[float32](tensor.Shape{4, 2}, rng, ad).RequireGrad()
//	loss := x.MatMul(w).Sum()
//	loss.Backward()
//
// # Available Operations
//
// Tensor[T, B] mirrors the Backend contract method for method:
//
// Element-wise, with broadcasting:
//
//	z := x.Add(y)
//	z := x.Sub(y)
//	z := x.Mul(y)
//	z := x.Div(y)
//
// Scalar and math:
//
//	y := x.AddScalar(1.0)
//	y := x.MulScalar(0.5)
//	y := x.Exp()
//	y := x.Log()
//
// Activations:
//
//	y := x.ReLU()
//	y := x.Sigmoid()
//	y := x.Tanh()
//	p := logits.Softmax() // along the last dimension
//
// Shape:
//
//	y := x.Reshape(3, 4)
//	y := x.Transpose()    // reverse all dims
//	y := x.T()            // 2-D shortcut
//
// Reductions:
//
//	s := x.Sum()
//	m := x.Mean()
//	r := x.SumDim(1, false)
//	r := x.MeanDim(-1, true)
//	i := x.Argmax(-1) // Tensor[int32, B]
//
// Losses and lookups:
//
//	loss := logits.CrossEntropy(targets)
//	rows := weight.Embedding(indices)
//
// Type conversion goes through the free function Cast, since Go methods
// cannot introduce a new type parameter:
//
//	ids := tensor.Cast[int32](labels)
package tensor
