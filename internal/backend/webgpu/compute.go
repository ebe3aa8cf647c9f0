//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// uniformParams packs up to four 32-bit words into the 16-byte block
// the shaders declare as their uniform struct. WebGPU requires uniform
// buffer sizes to be 16-byte aligned.
func uniformParams(words ...uint32) []byte {
	buf := make([]byte, 16)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// groups1D returns the workgroup count covering n elements at
// workgroupSize threads per group.
func groups1D(n int) uint32 {
	return uint32((n + workgroupSize - 1) / workgroupSize)
}

// groups2D returns the workgroup grid covering a cols x rows domain at
// tileSize threads per axis.
func groups2D(cols, rows int) (gx, gy uint32) {
	return uint32((cols + tileSize - 1) / tileSize), uint32((rows + tileSize - 1) / tileSize)
}

// createBuffer creates a GPU buffer and uploads data through the
// mapped-at-creation window.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	ptr := buffer.GetMappedRange(0, size)
	//nolint:gosec // zero-copy view of the mapped range
	copy(unsafe.Slice((*byte)(ptr), size), data)
	buffer.Unmap()

	return buffer
}

// readInto copies a storage buffer back to host memory through a
// staging buffer; storage buffers cannot be mapped directly.
func (b *Backend) readInto(src *wgpu.Buffer, dst []byte) error {
	size := uint64(len(dst))
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	ptr := staging.GetMappedRange(0, size)
	//nolint:gosec // zero-copy view of the mapped range
	copy(dst, unsafe.Slice((*byte)(ptr), size))
	staging.Unmap()

	return nil
}

// dispatch runs one compute pass of the named pipeline and reads the
// result back into dst. Storage buffers for the inputs are bound first,
// then the result buffer, then the uniform params; every shader in this
// package declares its bindings in that order.
func (b *Backend) dispatch(name, code string, inputs [][]byte, dst, params []byte, gx, gy, gz uint32) error {
	pipeline := b.getOrCreatePipeline(name, code)

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+2)
	for i, in := range inputs {
		buf := b.createBuffer(in, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer buf.Release()
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(len(in))))
	}

	resultSize := uint64(len(dst))
	result := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer result.Release()
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(inputs)), result, 0, resultSize))

	uniform := b.createBuffer(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer uniform.Release()
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(inputs)+1), uniform, 0, uint64(len(params))))

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(gx, gy, gz)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))

	return b.readInto(result, dst)
}

// runBinaryOp executes an element-wise two-operand kernel over float32
// tensors of identical shape.
func (b *Backend) runBinaryOp(a, other *tensor.RawTensor, name, code string) (*tensor.RawTensor, error) {
	n := a.NumElements()
	result := tensor.MustNewRaw(a.Shape(), tensor.Float32, tensor.WebGPU)
	err := b.dispatch(name, code, [][]byte{a.Data(), other.Data()}, result.Data(),
		uniformParams(uint32(n)), groups1D(n), 1, 1)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runUnaryOp executes an element-wise one-input kernel.
func (b *Backend) runUnaryOp(x *tensor.RawTensor, name, code string) (*tensor.RawTensor, error) {
	n := x.NumElements()
	result := tensor.MustNewRaw(x.Shape(), tensor.Float32, tensor.WebGPU)
	err := b.dispatch(name, code, [][]byte{x.Data()}, result.Data(),
		uniformParams(uint32(n)), groups1D(n), 1, 1)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runScalarOp executes a tensor-scalar kernel; the scalar rides in the
// uniform params next to the element count.
func (b *Backend) runScalarOp(x *tensor.RawTensor, scalar float32, name, code string) (*tensor.RawTensor, error) {
	n := x.NumElements()
	result := tensor.MustNewRaw(x.Shape(), tensor.Float32, tensor.WebGPU)
	err := b.dispatch(name, code, [][]byte{x.Data()}, result.Data(),
		uniformParams(uint32(n), math.Float32bits(scalar)), groups1D(n), 1, 1)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runMatMul computes C = A @ B for 2D float32 matrices.
func (b *Backend) runMatMul(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	m, k := a.Shape()[0], a.Shape()[1]
	n := other.Shape()[1]
	if other.Shape()[0] != k {
		return nil, fmt.Errorf("matmul shape mismatch: %v @ %v", a.Shape(), other.Shape())
	}

	result := tensor.MustNewRaw(tensor.Shape{m, n}, tensor.Float32, tensor.WebGPU)
	gx, gy := groups2D(n, m)
	err := b.dispatch("matmul", matmulShader, [][]byte{a.Data(), other.Data()}, result.Data(),
		uniformParams(uint32(m), uint32(k), uint32(n)), gx, gy, 1)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runTranspose flips a 2D float32 matrix.
func (b *Backend) runTranspose(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	rows, cols := x.Shape()[0], x.Shape()[1]
	result := tensor.MustNewRaw(tensor.Shape{cols, rows}, tensor.Float32, tensor.WebGPU)
	gx, gy := groups2D(cols, rows)
	err := b.dispatch("transpose", transposeShader, [][]byte{x.Data()}, result.Data(),
		uniformParams(uint32(rows), uint32(cols)), gx, gy, 1)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runSoftmax normalizes the rows of the flattened [rows, width] view of
// x, one shader thread per row.
func (b *Backend) runSoftmax(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	width := x.Shape()[len(x.Shape())-1]
	rows := x.NumElements() / width
	result := tensor.MustNewRaw(x.Shape(), tensor.Float32, tensor.WebGPU)
	err := b.dispatch("softmax", softmaxShader, [][]byte{x.Data()}, result.Data(),
		uniformParams(uint32(rows), uint32(width)), groups1D(rows), 1, 1)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runSum reduces x to a rank-0 scalar with the shared-memory tree
// kernel, one pass per factor of workgroupSize.
func (b *Backend) runSum(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	data, n := x.Data(), x.NumElements()
	for n > 1 {
		groups := (n + workgroupSize - 1) / workgroupSize
		partial := make([]byte, groups*4)
		err := b.dispatch("global_sum", globalSumShader, [][]byte{data}, partial,
			uniformParams(uint32(n)), uint32(groups), 1, 1)
		if err != nil {
			return nil, err
		}
		data, n = partial, groups
	}

	result := tensor.MustNewRaw(tensor.Shape{}, tensor.Float32, tensor.WebGPU)
	copy(result.Data(), data)
	return result, nil
}

// runSumRows reduces each row of the flattened [rows, width] view of x
// to one value.
func (b *Backend) runSumRows(x *tensor.RawTensor, outShape tensor.Shape) (*tensor.RawTensor, error) {
	width := x.Shape()[len(x.Shape())-1]
	rows := x.NumElements() / width
	result := tensor.MustNewRaw(outShape, tensor.Float32, tensor.WebGPU)
	err := b.dispatch("sum_rows", sumRowsShader, [][]byte{x.Data()}, result.Data(),
		uniformParams(uint32(rows), uint32(width)), groups1D(rows), 1, 1)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runArgmax finds the index of the row maximum in the flattened
// [rows, width] view of x. The shader emits indices as f32; they are
// converted to int32 on readback.
func (b *Backend) runArgmax(x *tensor.RawTensor, outShape tensor.Shape) (*tensor.RawTensor, error) {
	width := x.Shape()[len(x.Shape())-1]
	rows := x.NumElements() / width
	raw := make([]byte, rows*4)
	err := b.dispatch("argmax", argmaxShader, [][]byte{x.Data()}, raw,
		uniformParams(uint32(rows), uint32(width)), groups1D(rows), 1, 1)
	if err != nil {
		return nil, err
	}

	result := tensor.MustNewRaw(outShape, tensor.Int32, tensor.WebGPU)
	idx := result.AsInt32()
	for i := range idx {
		idx[i] = int32(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
	}
	return result, nil
}

// runEmbedding gathers weight rows by int32 index, one thread per
// output element. The caller has already bounds-checked the indices.
func (b *Backend) runEmbedding(weight, indices *tensor.RawTensor) (*tensor.RawTensor, error) {
	numEmbeddings, dim := weight.Shape()[0], weight.Shape()[1]
	outShape := append(indices.Shape().Clone(), dim)
	result := tensor.MustNewRaw(outShape, tensor.Float32, tensor.WebGPU)
	err := b.dispatch("embedding", embeddingShader, [][]byte{weight.Data(), indices.Data()}, result.Data(),
		uniformParams(uint32(indices.NumElements()), uint32(dim), uint32(numEmbeddings)),
		groups1D(result.NumElements()), 1, 1)
	if err != nil {
		return nil, err
	}
	return result, nil
}
