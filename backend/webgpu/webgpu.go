//go:build windows

// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package webgpu

import (
	internalwebgpu "github.com/kiln-ml/kiln/internal/backend/webgpu"
	"github.com/kiln-ml/kiln/tensor"
)

// Backend represents the WebGPU backend implementation for GPU-accelerated
// tensor operations. Operations without a shader (broadcasting, integer
// dtypes) fall back to CPU kernels transparently.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// This function initializes the WebGPU device and returns a backend
// ready for tensor operations. Call Release() when done to free GPU
// resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible
// GPU or missing native library).
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	backend := autodiff.New(gpu)
//	x := tensor.Randn[float32](tensor.Shape{1024, 1024}, rng, backend)
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// This function attempts to initialize a WebGPU adapter to verify
// that a compatible GPU and drivers are present. It's useful for
// graceful fallback to the CPU backend when no GPU is available.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
