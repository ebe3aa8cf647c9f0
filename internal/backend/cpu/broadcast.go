package cpu

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// broadcastStrides returns strides for reading a tensor of shape in as
// if it had shape out: size-1 dimensions and missing leading dimensions
// get stride 0 so their single element repeats.
func broadcastStrides(in, out tensor.Shape) []int {
	strides := make([]int, len(out))
	inStrides := in.ComputeStrides()
	offset := len(out) - len(in)

	for d := range out {
		if i := d - offset; i >= 0 && in[i] != 1 {
			strides[d] = inStrides[i]
		}
	}

	return strides
}

// flatIndex maps a flat index in the output to the flat index in an
// input read through broadcast strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	for d := range outStrides {
		idx += outIdx / outStrides[d] * inStrides[d]
		outIdx %= outStrides[d]
	}
	return idx
}
