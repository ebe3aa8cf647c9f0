package tensor

import "fmt"

// ScalarAsFloat64 converts any supported numeric scalar to float64.
// Backends use it to normalize the `scalar any` arguments of AddScalar
// and MulScalar before converting to the tensor's dtype.
func ScalarAsFloat64(scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint8:
		return float64(v)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}
