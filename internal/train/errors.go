package train

import "errors"

// Sentinel errors reported by models that keep the Base defaults.
var (
	// ErrLossNotImplemented is returned by Base.Loss. A fit aborts with
	// it before any parameter update when the model forgot to override
	// Loss.
	ErrLossNotImplemented = errors.New("model does not implement Loss")

	// ErrNoOptimizer is returned by Base.ConfigureOptimizers.
	ErrNoOptimizer = errors.New("model does not configure an optimizer")
)
