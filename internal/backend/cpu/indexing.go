package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/parallel"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Embedding gathers rows of weight by index: output[i] = weight[indices[i]].
// weight must be 2D [numEmbeddings, dim] and indices must be Int32; the
// output shape is indices.Shape() + [dim].
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got shape %v", wShape))
	}

	rows, dim := wShape[0], wShape[1]

	idx := indices.AsInt32()
	// Bounds are checked up front so the gather loop can run on the
	// worker pool without panicking inside a goroutine.
	for _, r := range idx {
		if int(r) < 0 || int(r) >= rows {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", r, rows))
		}
	}

	outShape := append(indices.Shape().Clone(), dim)
	result := tensor.MustNewRaw(outShape, weight.DType(), cpu.device)

	switch weight.DType() {
	case tensor.Float32:
		gatherRows(result.AsFloat32(), weight.AsFloat32(), idx, dim, cpu.par)
	case tensor.Float64:
		gatherRows(result.AsFloat64(), weight.AsFloat64(), idx, dim, cpu.par)
	default:
		panic(fmt.Sprintf("embedding: unsupported weight dtype %s", weight.DType()))
	}

	return result
}

func gatherRows[T ~float32 | ~float64](dst, weight []T, idx []int32, dim int, cfg parallel.Config) {
	parallel.ForRows(len(idx), dim, func(i int) {
		r := int(idx[i])
		copy(dst[i*dim:(i+1)*dim], weight[r*dim:(r+1)*dim])
	}, cfg)
}
