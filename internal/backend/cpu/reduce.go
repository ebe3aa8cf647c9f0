package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/parallel"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Sum computes the sum of all elements as a scalar tensor.
// Float inputs accumulate in float64.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := tensor.MustNewRaw(tensor.Shape{}, x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		var sum float64
		for _, v := range x.AsFloat32() {
			sum += float64(v)
		}
		result.AsFloat32()[0] = float32(sum)
	case tensor.Float64:
		var sum float64
		for _, v := range x.AsFloat64() {
			sum += v
		}
		result.AsFloat64()[0] = sum
	case tensor.Int32:
		var sum int32
		for _, v := range x.AsInt32() {
			sum += v
		}
		result.AsInt32()[0] = sum
	case tensor.Int64:
		var sum int64
		for _, v := range x.AsInt64() {
			sum += v
		}
		result.AsInt64()[0] = sum
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

// Mean computes the mean of all elements as a scalar tensor.
// The mean of an empty tensor is NaN.
func (cpu *CPUBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.Sum(x)
	n := float64(x.NumElements())

	switch result.DType() {
	case tensor.Float32:
		data := result.AsFloat32()
		data[0] = float32(float64(data[0]) / n)
	case tensor.Float64:
		data := result.AsFloat64()
		data[0] /= n
	default:
		panic(fmt.Sprintf("mean: unsupported dtype %s (only float32/float64 supported)", result.DType()))
	}

	return result
}

// SumDim sums along dim. keepDim keeps the reduced dimension with size
// 1; negative dims count from the end.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("sumdim", dim, len(shape))

	result := tensor.MustNewRaw(reducedShape(shape, dim, keepDim), x.DType(), cpu.device)
	outer, n, inner := reduceExtents(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		sumDimTo(result.AsFloat32(), x.AsFloat32(), outer, n, inner, cpu.par)
	case tensor.Float64:
		sumDimTo(result.AsFloat64(), x.AsFloat64(), outer, n, inner, cpu.par)
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// MeanDim computes the mean along dim. The mean over an empty dimension
// is NaN.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := cpu.SumDim(x, dim, keepDim)

	shape := x.Shape()
	n := float64(shape[normalizeDim("meandim", dim, len(shape))])

	switch result.DType() {
	case tensor.Float32:
		data := result.AsFloat32()
		for i := range data {
			data[i] = float32(float64(data[i]) / n)
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := range data {
			data[i] /= n
		}
	}

	return result
}

// Argmax returns the Int32 indices of the maxima along dim. The reduced
// dimension is removed from the output shape; ties resolve to the first
// index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("argmax", dim, len(shape))
	if shape[dim] == 0 {
		panic("argmax: cannot reduce an empty dimension")
	}

	result := tensor.MustNewRaw(reducedShape(shape, dim, false), tensor.Int32, cpu.device)
	outer, n, inner := reduceExtents(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		argmaxTo(result.AsInt32(), x.AsFloat32(), outer, n, inner, cpu.par)
	case tensor.Float64:
		argmaxTo(result.AsInt32(), x.AsFloat64(), outer, n, inner, cpu.par)
	case tensor.Int32:
		argmaxTo(result.AsInt32(), x.AsInt32(), outer, n, inner, cpu.par)
	case tensor.Int64:
		argmaxTo(result.AsInt32(), x.AsInt64(), outer, n, inner, cpu.par)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	return result
}

// normalizeDim resolves negative dims and bounds-checks the result.
func normalizeDim(name string, dim, ndim int) int {
	d := dim
	if d < 0 {
		d += ndim
	}
	if d < 0 || d >= ndim {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", name, dim, ndim))
	}
	return d
}

// reducedShape drops the reduced dimension, or keeps it as size 1.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	out = append(out, shape[:dim]...)
	return append(out, shape[dim+1:]...)
}

// reduceExtents splits shape into the product of dimensions before dim,
// the reduced extent itself, and the product after it, so kernels can
// treat any tensor as [outer, n, inner].
func reduceExtents(shape tensor.Shape, dim int) (outer, n, inner int) {
	outer, n, inner = 1, shape[dim], 1
	for _, s := range shape[:dim] {
		outer *= s
	}
	for _, s := range shape[dim+1:] {
		inner *= s
	}
	return outer, n, inner
}

// sumDimTo reduces src of logical shape [outer, n, inner] over the
// middle extent into dst of shape [outer, inner].
func sumDimTo[T ~float32 | ~float64](dst, src []T, outer, n, inner int, cfg parallel.Config) {
	parallel.ForRows(outer, n*inner, func(o int) {
		out := dst[o*inner : (o+1)*inner]
		for j := range out {
			out[j] = 0
		}
		for i := 0; i < n; i++ {
			row := src[(o*n+i)*inner : (o*n+i+1)*inner]
			for j, v := range row {
				out[j] += v
			}
		}
	}, cfg)
}

func argmaxTo[T number](dst []int32, src []T, outer, n, inner int, cfg parallel.Config) {
	parallel.ForRows(outer, n*inner, func(o int) {
		for j := 0; j < inner; j++ {
			best := src[o*n*inner+j]
			bestIdx := int32(0)
			for i := 1; i < n; i++ {
				if v := src[(o*n+i)*inner+j]; v > best {
					best = v
					bestIdx = int32(i)
				}
			}
			dst[o*inner+j] = bestIdx
		}
	}, cfg)
}
