package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Cast converts the tensor to a different data type. Casting to the
// same dtype returns x unchanged.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x
	}

	result := tensor.MustNewRaw(x.Shape(), dtype, cpu.device)

	switch x.DType() {
	case tensor.Float32:
		castFrom(result, x.AsFloat32(), dtype)
	case tensor.Float64:
		castFrom(result, x.AsFloat64(), dtype)
	case tensor.Int32:
		castFrom(result, x.AsInt32(), dtype)
	case tensor.Int64:
		castFrom(result, x.AsInt64(), dtype)
	case tensor.Uint8:
		castFrom(result, x.AsUint8(), dtype)
	case tensor.Bool:
		castFromBool(result, x.AsBool(), dtype)
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %s", x.DType()))
	}

	return result
}

func castFrom[S number](result *tensor.RawTensor, src []S, to tensor.DataType) {
	switch to {
	case tensor.Float32:
		convertSlice(result.AsFloat32(), src)
	case tensor.Float64:
		convertSlice(result.AsFloat64(), src)
	case tensor.Int32:
		convertSlice(result.AsInt32(), src)
	case tensor.Int64:
		convertSlice(result.AsInt64(), src)
	case tensor.Uint8:
		convertSlice(result.AsUint8(), src)
	case tensor.Bool:
		dst := result.AsBool()
		for i, v := range src {
			dst[i] = v != 0
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", to))
	}
}

func castFromBool(result *tensor.RawTensor, src []bool, to tensor.DataType) {
	switch to {
	case tensor.Float32:
		boolToNum(result.AsFloat32(), src)
	case tensor.Float64:
		boolToNum(result.AsFloat64(), src)
	case tensor.Int32:
		boolToNum(result.AsInt32(), src)
	case tensor.Int64:
		boolToNum(result.AsInt64(), src)
	case tensor.Uint8:
		boolToNum(result.AsUint8(), src)
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s from bool", to))
	}
}

func convertSlice[D, S number](dst []D, src []S) {
	for i, v := range src {
		dst[i] = D(v)
	}
}

func boolToNum[D number](dst []D, src []bool) {
	for i, b := range src {
		if b {
			dst[i] = 1
		}
	}
}
