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

// LanguageModelConfig holds the LanguageModel hyperparameters.
type LanguageModelConfig struct {
	VocabSize int     // token id range (required)
	EmbedDim  int     // embedding vector size (default 32)
	Hidden    int     // MLP hidden width (default 64)
	LR        float64 // Adam learning rate (default 0.001)
	Seed      int64   // weight initialization seed
}

// LanguageModel predicts the next token from a fixed window of
// preceding tokens. Each window is embedded, flattened and pushed
// through a small MLP producing vocabulary logits; training minimizes
// cross-entropy against the actual next token.
//
// Batches carry token ids as float32 rows of shape [batch, window];
// the embedding casts them back to indices at its boundary.
type LanguageModel[B tensor.Backend] struct {
	Base[B]
	config    LanguageModelConfig
	hp        hparams.Set
	backend   B
	embed     *nn.Embedding[B]
	net       *nn.Sequential[B]
	criterion *nn.CrossEntropyLoss[B]
}

// NewLanguageModel creates an unbuilt next-token model.
func NewLanguageModel[B tensor.Backend](backend B, config LanguageModelConfig) *LanguageModel[B] {
	if config.EmbedDim == 0 {
		config.EmbedDim = 32
	}
	if config.Hidden == 0 {
		config.Hidden = 64
	}
	if config.LR == 0 {
		config.LR = 0.001
	}
	return &LanguageModel[B]{
		config:    config,
		hp:        hparams.Capture(config),
		backend:   backend,
		criterion: nn.NewCrossEntropyLoss[B](),
	}
}

// Build allocates the embedding table and MLP for the observed window
// length.
func (m *LanguageModel[B]) Build(inputShape tensor.Shape) (*nn.ParameterSet[B], error) {
	if m.config.VocabSize < 2 {
		return nil, fmt.Errorf("language model needs a vocabulary of at least 2 tokens, got %d", m.config.VocabSize)
	}
	if len(inputShape) != 2 {
		return nil, fmt.Errorf("language model expects [batch, window] input, got shape %v", inputShape)
	}
	window := inputShape[1]

	rng := rand.New(rand.NewSource(m.config.Seed))
	m.embed = nn.NewEmbedding[B](m.config.VocabSize, m.config.EmbedDim, rng, m.backend)
	m.net = nn.NewSequential[B](
		nn.NewFlatten[B](),
		nn.NewLinear(window*m.config.EmbedDim, m.config.Hidden, rng, m.backend),
		nn.NewReLU[B](),
		nn.NewLinear(m.config.Hidden, m.config.VocabSize, rng, m.backend),
	)

	params := nn.NewParameterSet[B]()
	params.Collect("embed", m.embed)
	params.Collect("net", m.net)
	return params, nil
}

// Forward maps a token window to next-token logits.
func (m *LanguageModel[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if m.net == nil {
		panic("train: LanguageModel.Forward called before Build")
	}
	return m.net.Forward(m.embed.Forward(x))
}

// Loss is the cross-entropy between vocabulary logits and next tokens.
func (m *LanguageModel[B]) Loss(pred, target *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return m.criterion.Forward(pred, target), nil
}

// ConfigureOptimizers binds Adam at the configured learning rate.
func (m *LanguageModel[B]) ConfigureOptimizers(params *nn.ParameterSet[B]) (optim.Optimizer, error) {
	return optim.NewAdam(params, optim.AdamConfig{LR: m.config.LR}), nil
}

// ValidationStep scores one held-out batch, recording the loss and the
// next-token prediction accuracy.
func (m *LanguageModel[B]) ValidationStep(batch data.Batch[B], ctx *Context) error {
	pred := m.Forward(batch.X)
	loss, err := m.Loss(pred, batch.Y)
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

// Hyperparameters returns the captured construction config.
func (m *LanguageModel[B]) Hyperparameters() hparams.Set {
	return m.hp
}
