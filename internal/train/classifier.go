package train

import (
	"fmt"
	"math/rand"

	"github.com/kiln-ml/kiln/internal/data"
	"github.com/kiln-ml/kiln/internal/hparams"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// ClassifierConfig holds the Classifier hyperparameters.
type ClassifierConfig[B tensor.Backend] struct {
	NumClasses int     // number of output classes (required, at least 2)
	Hidden     int     // default MLP hidden width (default 128)
	Dropout    float64 // default MLP dropout probability; 0 disables the layer
	LR         float64 // SGD learning rate (default 0.1)
	Seed       int64   // weight initialization seed

	// Net overrides the default MLP. It is called at Build time with
	// the flattened input width and must produce logits of NumClasses.
	Net func(inputWidth int) nn.Module[B]
}

// Classifier learns a mapping from feature rows to class logits with
// cross-entropy loss. The default network is a one-hidden-layer MLP:
// Flatten, Linear, ReLU, optional Dropout, Linear.
//
// Its ValidationStep records both the validation loss and the fraction
// of correctly classified rows.
type Classifier[B tensor.Backend] struct {
	Base[B]
	config    ClassifierConfig[B]
	hp        hparams.Set
	backend   B
	net       nn.Module[B]
	criterion *nn.CrossEntropyLoss[B]
}

// NewClassifier creates an unbuilt classifier.
func NewClassifier[B tensor.Backend](backend B, config ClassifierConfig[B]) *Classifier[B] {
	if config.Hidden == 0 {
		config.Hidden = 128
	}
	if config.LR == 0 {
		config.LR = 0.1
	}
	return &Classifier[B]{
		config:    config,
		hp:        hparams.Capture(config, "Net"),
		backend:   backend,
		criterion: nn.NewCrossEntropyLoss[B](),
	}
}

// Build allocates the network for the observed input shape. Inputs with
// more than two dimensions are handled by the leading Flatten.
func (c *Classifier[B]) Build(inputShape tensor.Shape) (*nn.ParameterSet[B], error) {
	if c.config.NumClasses < 2 {
		return nil, fmt.Errorf("classifier needs at least 2 classes, got %d", c.config.NumClasses)
	}
	if len(inputShape) < 2 {
		return nil, fmt.Errorf("classifier expects [batch, features...] input, got shape %v", inputShape)
	}
	width := 1
	for _, dim := range inputShape[1:] {
		width *= dim
	}

	if c.config.Net != nil {
		c.net = c.config.Net(width)
	} else {
		rng := rand.New(rand.NewSource(c.config.Seed))
		layers := []nn.Module[B]{
			nn.NewFlatten[B](),
			nn.NewLinear(width, c.config.Hidden, rng, c.backend),
			nn.NewReLU[B](),
		}
		if c.config.Dropout > 0 {
			layers = append(layers, nn.NewDropout[B](c.config.Dropout, rng))
		}
		layers = append(layers, nn.NewLinear(c.config.Hidden, c.config.NumClasses, rng, c.backend))
		c.net = nn.NewSequential(layers...)
	}

	params := nn.NewParameterSet[B]()
	params.Collect("net", c.net)
	return params, nil
}

// Forward computes class logits.
func (c *Classifier[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if c.net == nil {
		panic("train: Classifier.Forward called before Build")
	}
	return c.net.Forward(x)
}

// Loss is the cross-entropy between logits and class labels.
func (c *Classifier[B]) Loss(pred, target *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return c.criterion.Forward(pred, target), nil
}

// ConfigureOptimizers binds SGD at the configured learning rate.
func (c *Classifier[B]) ConfigureOptimizers(params *nn.ParameterSet[B]) (optim.Optimizer, error) {
	return optim.NewSGD(params, optim.SGDConfig{LR: c.config.LR}), nil
}

// ValidationStep scores one held-out batch, plotting and recording the
// classification loss and accuracy.
func (c *Classifier[B]) ValidationStep(batch data.Batch[B], ctx *Context) error {
	pred := c.Forward(batch.X)
	loss, err := c.Loss(pred, batch.Y)
	if err != nil {
		return err
	}
	l := float64(loss.Item())
	acc := nn.Accuracy(pred, batch.Y)

	ctx.PlotVal("loss", l, ctx.PlotValidPerEpoch)
	ctx.PlotVal("acc", acc, ctx.PlotValidPerEpoch)
	ctx.Observe(MetricValLoss, l)
	ctx.Observe(MetricValAccuracy, acc)
	return nil
}

// SetTraining propagates the mode switch into the network (Dropout).
func (c *Classifier[B]) SetTraining(training bool) {
	if tm, ok := c.net.(nn.TrainingMode); ok {
		tm.SetTraining(training)
	}
}

// Hyperparameters returns the captured construction config.
func (c *Classifier[B]) Hyperparameters() hparams.Set {
	return c.hp
}
