// Package train drives the optimization loop.
//
// The Trainer owns the epoch and batch iteration, the backward pass,
// gradient clipping, optimizer stepping, validation, progress plotting
// and checkpointing; the Model contract keeps the what-to-compute side
// pluggable. The conversation between the two is explicit: the trainer
// peeks the first batch to learn the input shape, has the model Build
// its parameters, binds an optimizer through ConfigureOptimizers, and
// then alternates training and validation phases, handing every hook a
// Context describing where in the run it is.
//
//	backend := autodiff.New(cpu.New())
//	trainer, err := train.New(backend, train.Config{MaxEpochs: 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := trainer.Fit(model, datamodule)
//
// The trainer is single-threaded by design: one goroutine owns the
// tape, the parameters and the board for the duration of Fit.
package train

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kiln-ml/kiln/internal/autodiff"
	"github.com/kiln-ml/kiln/internal/data"
	"github.com/kiln-ml/kiln/internal/hparams"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Trainer runs the fit loop on an autodiff-decorated backend.
type Trainer[B tensor.Backend] struct {
	backend *autodiff.AutodiffBackend[B]
	config  Config
}

// New creates a trainer. The backend must be the same decorated
// backend the model's layers and the data loaders are built on, so
// that every forward operation lands on its tape.
func New[B tensor.Backend](backend *autodiff.AutodiffBackend[B], config Config) (*Trainer[B], error) {
	if backend == nil {
		return nil, fmt.Errorf("nil backend")
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trainer config: %w", err)
	}
	return &Trainer[B]{backend: backend, config: config}, nil
}

// Fit trains the model on the datamodule's training split for
// Config.MaxEpochs epochs, running a full validation pass after each
// one.
//
// Any error from a model hook aborts the fit immediately with the
// wrapped error; there is no implicit recovery or retry. The returned
// Report carries per-epoch mean losses, validation accuracy when the
// model observes one, and wall times.
func (t *Trainer[B]) Fit(model Model[*autodiff.AutodiffBackend[B]], dm data.DataModule[*autodiff.AutodiffBackend[B]]) (*Report, error) {
	cfg := t.config
	start := time.Now()

	trainLoader := dm.Dataloader(true)
	if trainLoader == nil {
		return nil, fmt.Errorf("datamodule returned no training loader")
	}
	valLoader := dm.Dataloader(false)

	numTrain := trainLoader.Len()
	numVal := 0
	if valLoader != nil {
		numVal = valLoader.Len()
	}

	first, ok := trainLoader.Peek()
	if !ok {
		return nil, fmt.Errorf("training loader is empty")
	}
	params, err := model.Build(first.X.Shape())
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	opt, err := model.ConfigureOptimizers(params)
	if err != nil {
		return nil, fmt.Errorf("configure optimizers: %w", err)
	}

	cfg.Logger.Printf("fit model=%s optimizer=%s params=%d max_epochs=%d train_batches=%d val_batches=%d",
		modelTypeName(model), opt.Name(), params.NumElements(), cfg.MaxEpochs, numTrain, numVal)
	if hp := t.runHyperparams(model); len(hp) > 0 {
		cfg.Logger.Printf("fit hparams %s", hp.String())
	}

	ctx := &Context{
		MaxEpochs:         cfg.MaxEpochs,
		NumTrainBatches:   numTrain,
		NumValBatches:     numVal,
		PlotTrainPerEpoch: cfg.PlotTrainPerEpoch,
		PlotValidPerEpoch: cfg.PlotValidPerEpoch,
		Board:             cfg.Board,
	}

	tape := t.backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()
	defer tape.Clear()

	report := &Report{}
	for epoch := 0; epoch < cfg.MaxEpochs; epoch++ {
		epochStart := time.Now()
		ctx.Epoch = epoch
		ctx.metrics = newMetricSet()

		// Epoch 0 reuses the peeked loader: Peek does not consume, so
		// the first ordering is still intact. Later epochs draw a fresh
		// shuffle from the datamodule.
		loader := trainLoader
		if epoch > 0 {
			loader = dm.Dataloader(true)
		}
		if err := t.fitEpoch(model, opt, params, loader, ctx); err != nil {
			return nil, err
		}

		if numVal > 0 {
			vl := valLoader
			if epoch > 0 {
				vl = dm.Dataloader(false)
			}
			if err := t.validate(model, vl, ctx); err != nil {
				return nil, err
			}
		}

		stats := epochStats(epoch, ctx.metrics, time.Since(epochStart))
		report.Epochs = append(report.Epochs, stats)
		cfg.Logger.Print(epochLogLine(stats, cfg.MaxEpochs))

		last := epoch == cfg.MaxEpochs-1
		if cfg.CheckpointPath != "" && (last || (cfg.CheckpointEvery > 0 && (epoch+1)%cfg.CheckpointEvery == 0)) {
			if err := t.saveCheckpoint(model, opt, params, ctx, stats); err != nil {
				return nil, fmt.Errorf("save checkpoint: %w", err)
			}
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

// fitEpoch runs the training phase of one epoch: step, backward, clip,
// update, clear the tape, for every batch.
func (t *Trainer[B]) fitEpoch(model Model[*autodiff.AutodiffBackend[B]], opt optim.Optimizer, params *nn.ParameterSet[*autodiff.AutodiffBackend[B]], loader *data.Loader[*autodiff.AutodiffBackend[B]], ctx *Context) error {
	ctx.Training = true
	setTraining(model, true)

	for {
		batch, ok := loader.Next()
		if !ok {
			return nil
		}

		loss, err := t.trainingStep(model, batch, ctx)
		if err != nil {
			return fmt.Errorf("training step (epoch %d, batch %d): %w", ctx.Epoch, ctx.TrainBatchIdx, err)
		}
		ctx.Observe(MetricTrainLoss, float64(loss.Item()))

		opt.ZeroGrad()
		grads := loss.Backward()
		bindGradients(params, grads)
		if t.config.GradientClip > 0 {
			clipGradients(params, t.config.GradientClip)
		}
		opt.Step()
		t.backend.Tape().Clear()

		ctx.TrainBatchIdx++
	}
}

func (t *Trainer[B]) trainingStep(model Model[*autodiff.AutodiffBackend[B]], batch data.Batch[*autodiff.AutodiffBackend[B]], ctx *Context) (*tensor.Tensor[float32, *autodiff.AutodiffBackend[B]], error) {
	if stepper, ok := model.(TrainingStepper[*autodiff.AutodiffBackend[B]]); ok {
		return stepper.TrainingStep(batch, ctx)
	}
	pred := model.Forward(batch.X)
	loss, err := model.Loss(pred, batch.Y)
	if err != nil {
		return nil, err
	}
	ctx.PlotTrain("loss", float64(loss.Item()), t.config.PlotTrainPerEpoch)
	return loss, nil
}

// validate runs the validation phase with gradient recording suspended
// and the model in eval mode. No parameter updates happen here.
func (t *Trainer[B]) validate(model Model[*autodiff.AutodiffBackend[B]], loader *data.Loader[*autodiff.AutodiffBackend[B]], ctx *Context) error {
	ctx.Training = false
	setTraining(model, false)

	var stepErr error
	t.backend.NoGrad(func() {
		for {
			batch, ok := loader.Next()
			if !ok {
				return
			}
			if err := t.validationStep(model, batch, ctx); err != nil {
				stepErr = fmt.Errorf("validation step (epoch %d, batch %d): %w", ctx.Epoch, ctx.ValBatchIdx, err)
				return
			}
			ctx.ValBatchIdx++
		}
	})
	return stepErr
}

func (t *Trainer[B]) validationStep(model Model[*autodiff.AutodiffBackend[B]], batch data.Batch[*autodiff.AutodiffBackend[B]], ctx *Context) error {
	if stepper, ok := model.(ValidationStepper[*autodiff.AutodiffBackend[B]]); ok {
		return stepper.ValidationStep(batch, ctx)
	}
	pred := model.Forward(batch.X)
	loss, err := model.Loss(pred, batch.Y)
	if err != nil {
		return err
	}
	v := float64(loss.Item())
	ctx.PlotVal("loss", v, t.config.PlotValidPerEpoch)
	ctx.Observe(MetricValLoss, v)
	return nil
}

func (t *Trainer[B]) saveCheckpoint(model Model[*autodiff.AutodiffBackend[B]], opt optim.Optimizer, params *nn.ParameterSet[*autodiff.AutodiffBackend[B]], ctx *Context, stats EpochStats) error {
	info := nn.CheckpointInfo{
		ModelType:     modelTypeName(model),
		Epoch:         ctx.Epoch,
		Step:          int64(ctx.TrainBatchIdx),
		Loss:          stats.TrainLoss,
		OptimizerType: opt.Name(),
		Hyperparams:   t.runHyperparams(model),
	}
	if err := nn.SaveCheckpoint(t.config.CheckpointPath, params, opt.StateDict(), info); err != nil {
		return err
	}
	t.config.Logger.Printf("checkpoint path=%s epoch=%d step=%d", t.config.CheckpointPath, ctx.Epoch, ctx.TrainBatchIdx)
	return nil
}

// runHyperparams merges the trainer's own hyperparameters with the
// model's captured set; the model wins on collisions.
func (t *Trainer[B]) runHyperparams(model any) hparams.Set {
	set := hparams.Capture(t.config, "Board", "Logger")
	if hp, ok := model.(HyperParametered); ok {
		set = set.Merge(hp.Hyperparameters())
	}
	return set
}

// bindGradients moves the raw gradients produced by the backward pass
// into the parameters' gradient slots.
func bindGradients[B tensor.Backend](params *nn.ParameterSet[B], grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range params.All() {
		if g, ok := grads[p.Tensor().Raw()]; ok {
			p.SetGrad(tensor.New[float32](g, p.Tensor().Backend()))
		}
	}
}

// clipGradients rescales all gradients so their global L2 norm does
// not exceed clip.
func clipGradients[B tensor.Backend](params *nn.ParameterSet[B], clip float64) {
	var sumSq float64
	for _, p := range params.All() {
		g := p.Grad()
		if g == nil {
			continue
		}
		for _, v := range g.Raw().AsFloat32() {
			sumSq += float64(v) * float64(v)
		}
	}
	norm := math.Sqrt(sumSq)
	if norm <= clip {
		return
	}

	scale := float32(clip / norm)
	for _, p := range params.All() {
		g := p.Grad()
		if g == nil {
			continue
		}
		gradData := g.Raw().AsFloat32()
		for i := range gradData {
			gradData[i] *= scale
		}
	}
}

// setTraining switches train/eval mode when the model cares.
func setTraining(model any, training bool) {
	if tm, ok := model.(nn.TrainingMode); ok {
		tm.SetTraining(training)
	}
}

// modelTypeName reduces a model's Go type to a short display name:
// "*train.Classifier[*autodiff.AutodiffBackend[...]]" becomes
// "Classifier".
func modelTypeName(model any) string {
	s := fmt.Sprintf("%T", model)
	s = strings.TrimPrefix(s, "*")
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func epochStats(epoch int, metrics *metricSet, dur time.Duration) EpochStats {
	stats := EpochStats{Epoch: epoch, Metrics: metrics.means(), Duration: dur}
	if v, ok := metrics.mean(MetricTrainLoss); ok {
		stats.TrainLoss = v
	}
	if v, ok := metrics.mean(MetricValLoss); ok {
		stats.ValLoss = v
		stats.HasValLoss = true
	}
	if v, ok := metrics.mean(MetricValAccuracy); ok {
		stats.ValAccuracy = v
		stats.HasValAccuracy = true
	}
	return stats
}

func epochLogLine(stats EpochStats, maxEpochs int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "epoch=%d/%d train_loss=%.4f", stats.Epoch+1, maxEpochs, stats.TrainLoss)
	if stats.HasValLoss {
		fmt.Fprintf(&b, " val_loss=%.4f", stats.ValLoss)
	}
	if stats.HasValAccuracy {
		fmt.Fprintf(&b, " val_acc=%.4f", stats.ValAccuracy)
	}
	fmt.Fprintf(&b, " dur=%s", stats.Duration.Round(time.Millisecond))
	return b.String()
}
