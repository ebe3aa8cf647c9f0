package train

import (
	"fmt"
	"math/rand"

	"github.com/kiln-ml/kiln/internal/hparams"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// RegressorConfig holds the Regressor hyperparameters.
type RegressorConfig struct {
	LR   float64 // SGD learning rate (default 0.01)
	Seed int64   // weight initialization seed
}

// Regressor is linear regression as a Model: a single Linear layer with
// one output, mean squared error loss and plain SGD.
type Regressor[B tensor.Backend] struct {
	Base[B]
	config    RegressorConfig
	hp        hparams.Set
	backend   B
	net       *nn.Linear[B]
	criterion *nn.MSELoss[B]
}

// NewRegressor creates an unbuilt regressor; the network is allocated
// by Build once the input width is known.
func NewRegressor[B tensor.Backend](backend B, config RegressorConfig) *Regressor[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &Regressor[B]{
		config:    config,
		hp:        hparams.Capture(config),
		backend:   backend,
		criterion: nn.NewMSELoss[B](),
	}
}

// Build allocates the Linear layer for the observed feature width.
func (r *Regressor[B]) Build(inputShape tensor.Shape) (*nn.ParameterSet[B], error) {
	if len(inputShape) != 2 {
		return nil, fmt.Errorf("regressor expects [batch, features] input, got shape %v", inputShape)
	}
	rng := rand.New(rand.NewSource(r.config.Seed))
	r.net = nn.NewLinear(inputShape[1], 1, rng, r.backend)

	params := nn.NewParameterSet[B]()
	params.Collect("net", r.net)
	return params, nil
}

// Forward predicts one value per row.
func (r *Regressor[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if r.net == nil {
		panic("train: Regressor.Forward called before Build")
	}
	return r.net.Forward(x)
}

// Loss is the mean squared error.
func (r *Regressor[B]) Loss(pred, target *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return r.criterion.Forward(pred, target), nil
}

// ConfigureOptimizers binds SGD at the configured learning rate.
func (r *Regressor[B]) ConfigureOptimizers(params *nn.ParameterSet[B]) (optim.Optimizer, error) {
	return optim.NewSGD(params, optim.SGDConfig{LR: r.config.LR}), nil
}

// Hyperparameters returns the captured construction config.
func (r *Regressor[B]) Hyperparameters() hparams.Set {
	return r.hp
}

// Net exposes the built layer for weight inspection; nil before Build.
func (r *Regressor[B]) Net() *nn.Linear[B] {
	return r.net
}
