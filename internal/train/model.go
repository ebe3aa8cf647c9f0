package train

import (
	"github.com/kiln-ml/kiln/internal/data"
	"github.com/kiln-ml/kiln/internal/hparams"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Model is the contract between a learnable model and the Trainer.
//
// Construction is two-phase: a model is created with its configuration
// only, and Build later allocates the network once the trainer has seen
// the shape of the data. The parameter set Build returns is threaded
// explicitly into ConfigureOptimizers and checkpointing; nothing is
// discovered by reflection.
type Model[B tensor.Backend] interface {
	// Build allocates the network and its parameters for the observed
	// input shape. The trainer calls it exactly once, before any step,
	// with the shape of the first training batch's features.
	Build(inputShape tensor.Shape) (*nn.ParameterSet[B], error)

	// Forward computes predictions for a feature batch. Panics when
	// called before a successful Build.
	Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Loss reduces predictions and targets to a differentiable scalar.
	Loss(pred, target *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error)

	// ConfigureOptimizers binds an update rule to the built parameters.
	ConfigureOptimizers(params *nn.ParameterSet[B]) (optim.Optimizer, error)
}

// TrainingStepper replaces the trainer's default training step (forward,
// Loss, plot "loss"). The returned loss must be a scalar computed
// through the recording backend; the trainer runs the backward pass and
// the optimizer update either way.
type TrainingStepper[B tensor.Backend] interface {
	TrainingStep(batch data.Batch[B], ctx *Context) (*tensor.Tensor[float32, B], error)
}

// ValidationStepper replaces the trainer's default validation step. The
// step runs with gradient recording suspended and the model in eval
// mode, and is responsible for recording its metrics through
// ctx.Observe and plotting through ctx.PlotVal.
type ValidationStepper[B tensor.Backend] interface {
	ValidationStep(batch data.Batch[B], ctx *Context) error
}

// HyperParametered is implemented by models that capture their
// construction hyperparameters. The trainer folds the set into its log
// output and checkpoint metadata.
type HyperParametered interface {
	Hyperparameters() hparams.Set
}

// Base supplies the Model defaults. Concrete models embed it and
// override what they implement:
//
//	type Regressor[B tensor.Backend] struct {
//	    train.Base[B]
//	    // ...
//	}
//
// The defaults are deliberately inert: Build returns an empty parameter
// set, Forward panics (there is no network to run), and Loss and
// ConfigureOptimizers report their sentinel errors so a half-finished
// model fails fast in Fit instead of training silently wrong.
type Base[B tensor.Backend] struct{}

// Build returns an empty parameter set.
func (Base[B]) Build(tensor.Shape) (*nn.ParameterSet[B], error) {
	return nn.NewParameterSet[B](), nil
}

// Forward panics: the embedding model has not built a network.
func (Base[B]) Forward(*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	panic("train: Forward called on a model with no forward network")
}

// Loss returns ErrLossNotImplemented.
func (Base[B]) Loss(_, _ *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return nil, ErrLossNotImplemented
}

// ConfigureOptimizers returns ErrNoOptimizer.
func (Base[B]) ConfigureOptimizers(*nn.ParameterSet[B]) (optim.Optimizer, error) {
	return nil, ErrNoOptimizer
}
