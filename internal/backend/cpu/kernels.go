package cpu

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// number covers the element types the arithmetic kernels operate on.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// Flat same-layout kernels. dst may alias a.

func addTo[T number](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

func subTo[T number](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
}

func mulTo[T number](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

func divTo[T number](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] / b[i]
	}
}

// Strided broadcast kernels. Inputs are read through broadcast strides,
// where size-1 and missing dimensions have stride 0.

func addBroadcastTo[T number](dst, a, b []T, outStrides, aStrides, bStrides []int) {
	for i := range dst {
		dst[i] = a[flatIndex(i, outStrides, aStrides)] + b[flatIndex(i, outStrides, bStrides)]
	}
}

func subBroadcastTo[T number](dst, a, b []T, outStrides, aStrides, bStrides []int) {
	for i := range dst {
		dst[i] = a[flatIndex(i, outStrides, aStrides)] - b[flatIndex(i, outStrides, bStrides)]
	}
}

func mulBroadcastTo[T number](dst, a, b []T, outStrides, aStrides, bStrides []int) {
	for i := range dst {
		dst[i] = a[flatIndex(i, outStrides, aStrides)] * b[flatIndex(i, outStrides, bStrides)]
	}
}

func divBroadcastTo[T number](dst, a, b []T, outStrides, aStrides, bStrides []int) {
	for i := range dst {
		dst[i] = a[flatIndex(i, outStrides, aStrides)] / b[flatIndex(i, outStrides, bStrides)]
	}
}

// transposeTo copies src into dst with dimensions permuted by axes.
// Each source element's destination index is built from a per-dimension
// stride map, so no per-element coordinate slices are allocated.
func transposeTo[T any](dst, src []T, shape tensor.Shape, axes []int) {
	srcStrides := shape.ComputeStrides()

	dstShape := make(tensor.Shape, len(axes))
	for i, ax := range axes {
		dstShape[i] = shape[ax]
	}
	dstStrides := dstShape.ComputeStrides()

	// strideMap[srcDim] = stride of that dimension in the destination.
	strideMap := make([]int, len(axes))
	for dstDim, srcDim := range axes {
		strideMap[srcDim] = dstStrides[dstDim]
	}

	for i := range src {
		rem := i
		dstIdx := 0
		for d, s := range srcStrides {
			dstIdx += rem / s * strideMap[d]
			rem %= s
		}
		dst[dstIdx] = src[i]
	}
}
