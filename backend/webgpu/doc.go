// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated tensor
// operations.
//
// The wgpu_native runtime the bindings load ships for windows, so the
// Backend alias and New carry a windows build constraint; on other
// platforms only IsAvailable exists and reports false. Programs that
// pick a backend at runtime put the GPU branch behind the same
// constraint and guard it:
//
//	if !webgpu.IsAvailable() {
//	    return fmt.Errorf("no WebGPU device")
//	}
//	gpu, err := webgpu.New()
//	if err != nil {
//	    return err
//	}
//	defer gpu.Release()
//	backend := autodiff.New(gpu)
package webgpu
