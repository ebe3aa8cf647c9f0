package train

import "github.com/kiln-ml/kiln/internal/board"

// Well-known metric names. The fit Report picks these out of the epoch
// metrics; models may Observe additional names of their own.
const (
	MetricTrainLoss   = "train_loss"
	MetricValLoss     = "val_loss"
	MetricValAccuracy = "val_acc"
)

// Context carries the per-step training state into model hooks.
//
// The trainer owns the context and mutates it between steps; hooks read
// it during their call and must not retain it. Passing the state
// explicitly keeps models free of any back-reference to the trainer.
type Context struct {
	Epoch     int // current epoch, 0-based
	MaxEpochs int

	TrainBatchIdx int // global training batch counter, never reset
	ValBatchIdx   int // global validation batch counter, never reset

	NumTrainBatches int // batches per training epoch
	NumValBatches   int // batches per validation epoch

	Training bool // true during the training phase of an epoch

	// PlotTrainPerEpoch and PlotValidPerEpoch mirror the trainer's
	// configured plot densities so hooks can feed them back into
	// PlotTrain and PlotVal.
	PlotTrainPerEpoch int
	PlotValidPerEpoch int

	Board *board.Board // nil disables plotting

	metrics *metricSet
}

// PlotTrain draws a training-phase sample under the "train_"-prefixed
// key. The x coordinate is the fraction of training consumed,
// TrainBatchIdx / NumTrainBatches, so each epoch spans one x unit; the
// board's everyN averaging condenses an epoch to perEpoch visible
// points. No-op without a board.
func (c *Context) PlotTrain(key string, v float64, perEpoch int) {
	if c.Board == nil || c.NumTrainBatches == 0 {
		return
	}
	if perEpoch < 1 {
		perEpoch = 1
	}
	x := float64(c.TrainBatchIdx) / float64(c.NumTrainBatches)
	c.Board.Draw(x, v, "train_"+key, c.NumTrainBatches/perEpoch)
}

// PlotVal draws a validation-phase sample under the "val_"-prefixed key
// at x = Epoch+1, condensing each epoch's validation batches to
// perEpoch visible points. No-op without a board.
func (c *Context) PlotVal(key string, v float64, perEpoch int) {
	if c.Board == nil {
		return
	}
	if perEpoch < 1 {
		perEpoch = 1
	}
	x := float64(c.Epoch + 1)
	c.Board.Draw(x, v, "val_"+key, c.NumValBatches/perEpoch)
}

// Observe folds a value into the epoch's running mean for name. The
// per-epoch means surface in the fit Report; validation hooks use this
// to contribute their metrics.
func (c *Context) Observe(name string, v float64) {
	if c.metrics == nil {
		return
	}
	c.metrics.observe(name, v)
}
