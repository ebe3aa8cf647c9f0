package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// binaryOp identifies an element-wise arithmetic operation.
type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

func (op binaryOp) String() string {
	switch op {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	case opDiv:
		return "div"
	default:
		return "unknown"
	}
}

// binary runs op with broadcasting. When the shapes match exactly and
// a's buffer has no other holders, the operation mutates a in place and
// returns it; tensors pinned with ForceNonUnique never take this path.
func (cpu *CPUBackend) binary(op binaryOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	if !needsBroadcast {
		// Equal element counts and layouts, so a flat loop suffices
		// even when the ranks differ ([2,3] vs [1,2,3]).
		if a.IsUnique() && a.Shape().Equal(outShape) {
			applySame(op, a, a, b)
			return a
		}
		result := tensor.MustNewRaw(outShape, a.DType(), cpu.device)
		applySame(op, result, a, b)
		return result
	}

	result := tensor.MustNewRaw(outShape, a.DType(), cpu.device)
	applyBroadcast(op, result, a, b)
	return result
}

// applySame dispatches the flat same-layout kernel by dtype.
// dst may alias a for the in-place path.
func applySame(op binaryOp, dst, a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		sameShape(op, dst.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		sameShape(op, dst.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	case tensor.Int32:
		sameShape(op, dst.AsInt32(), a.AsInt32(), b.AsInt32())
	case tensor.Int64:
		sameShape(op, dst.AsInt64(), a.AsInt64(), b.AsInt64())
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
}

func sameShape[T number](op binaryOp, dst, a, b []T) {
	switch op {
	case opAdd:
		addTo(dst, a, b)
	case opSub:
		subTo(dst, a, b)
	case opMul:
		mulTo(dst, a, b)
	case opDiv:
		divTo(dst, a, b)
	}
}

// applyBroadcast dispatches the strided broadcast kernel by dtype.
func applyBroadcast(op binaryOp, dst, a, b *tensor.RawTensor) {
	outShape := dst.Shape()
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)

	switch a.DType() {
	case tensor.Float32:
		broadcastOp(op, dst.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outStrides, aStrides, bStrides)
	case tensor.Float64:
		broadcastOp(op, dst.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outStrides, aStrides, bStrides)
	case tensor.Int32:
		broadcastOp(op, dst.AsInt32(), a.AsInt32(), b.AsInt32(), outStrides, aStrides, bStrides)
	case tensor.Int64:
		broadcastOp(op, dst.AsInt64(), a.AsInt64(), b.AsInt64(), outStrides, aStrides, bStrides)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
}

func broadcastOp[T number](op binaryOp, dst, a, b []T, outStrides, aStrides, bStrides []int) {
	switch op {
	case opAdd:
		addBroadcastTo(dst, a, b, outStrides, aStrides, bStrides)
	case opSub:
		subBroadcastTo(dst, a, b, outStrides, aStrides, bStrides)
	case opMul:
		mulBroadcastTo(dst, a, b, outStrides, aStrides, bStrides)
	case opDiv:
		divBroadcastTo(dst, a, b, outStrides, aStrides, bStrides)
	}
}
