package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// AddScalar adds a scalar to each element. The scalar may be any Go
// numeric value; it is converted to the tensor's dtype.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("addscalar", opAdd, x, scalar)
}

// MulScalar multiplies each element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mulscalar", opMul, x, scalar)
}

func (cpu *CPUBackend) scalarOp(name string, op binaryOp, x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	v := tensor.ScalarAsFloat64(scalar)
	result := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		scalarTo(op, result.AsFloat32(), x.AsFloat32(), float32(v))
	case tensor.Float64:
		scalarTo(op, result.AsFloat64(), x.AsFloat64(), v)
	case tensor.Int32:
		scalarTo(op, result.AsInt32(), x.AsInt32(), int32(v))
	case tensor.Int64:
		scalarTo(op, result.AsInt64(), x.AsInt64(), int64(v))
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

func scalarTo[T number](op binaryOp, dst, src []T, s T) {
	switch op {
	case opAdd:
		for i, v := range src {
			dst[i] = v + s
		}
	case opMul:
		for i, v := range src {
			dst[i] = v * s
		}
	default:
		panic(fmt.Sprintf("scalar %s not supported", op))
	}
}
