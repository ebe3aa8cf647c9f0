package cpu

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"

	"github.com/kiln-ml/kiln/internal/parallel"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// jTile is the column-tile width for the matmul inner loop, sized so a
// tile of the output row plus the matching tile of a b row stay
// resident in the L1 data cache.
var jTile = l1TileWidth()

func l1TileWidth() int {
	l1 := cpuid.CPU.Cache.L1D
	if l1 <= 0 {
		l1 = 32 << 10
	}
	return max(l1/16, 256)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Output rows are independent and fan out across the worker pool.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k := aShape[0], aShape[1]
	kb, n := bShape[0], bShape[1]
	if k != kb {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kb, n))
	}

	result := tensor.MustNewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		matmul(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.par)
	case tensor.Float64:
		matmul(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, cpu.par)
	case tensor.Int32:
		matmul(result.AsInt32(), a.AsInt32(), b.AsInt32(), m, k, n, cpu.par)
	case tensor.Int64:
		matmul(result.AsInt64(), a.AsInt64(), b.AsInt64(), m, k, n, cpu.par)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmul computes c = a @ b one output row at a time. The i-k-j loop
// order streams rows of b sequentially, and the j loop is tiled so the
// active slices of b and c stay cache-resident for large n.
func matmul[T number](c, a, b []T, m, k, n int, cfg parallel.Config) {
	parallel.ForRows(m, n*k, func(i int) {
		row := c[i*n : (i+1)*n]
		for j := range row {
			row[j] = 0
		}

		for j0 := 0; j0 < n; j0 += jTile {
			j1 := min(j0+jTile, n)
			seg := row[j0:j1]
			for kk := 0; kk < k; kk++ {
				aik := a[i*k+kk]
				bRow := b[kk*n+j0 : kk*n+j1]
				for j, bv := range bRow {
					seg[j] += aik * bv
				}
			}
		}
	}, cfg)
}
