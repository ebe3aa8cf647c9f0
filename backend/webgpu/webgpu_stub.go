//go:build !windows

// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package webgpu

// IsAvailable reports whether a WebGPU device can be initialized. The
// wgpu_native runtime ships for windows only, so this is always false
// here; the Backend type and New exist only under the windows build
// constraint.
func IsAvailable() bool {
	return false
}
