// Package webgpu implements the WebGPU backend for GPU-accelerated
// tensor operations, using go-webgpu for zero-CGO WebGPU bindings.
//
// The wgpu_native loader currently ships for windows only, so the
// implementation carries a windows build constraint and this package
// compiles empty elsewhere. On windows, probe IsAvailable before
// calling New and fall back to the CPU backend when it reports false.
package webgpu
