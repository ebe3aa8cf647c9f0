package train

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-ml/kiln/internal/board"
)

func TestContext_PlotTrainCondensesEpoch(t *testing.T) {
	brd := board.New()
	ctx := &Context{NumTrainBatches: 4, Board: brd}

	// perEpoch 2 over 4 batches: the board averages every 2 draws, so
	// one epoch leaves 2 visible points on the x axis in epoch units.
	for _, v := range []float64{1, 2, 3, 4} {
		ctx.PlotTrain("loss", v, 2)
		ctx.TrainBatchIdx++
	}

	pts := brd.Points("train_loss")
	require.Len(t, pts, 2)
	assert.InDelta(t, 0.125, pts[0].X, 1e-9)
	assert.InDelta(t, 1.5, pts[0].Y, 1e-9)
	assert.InDelta(t, 0.625, pts[1].X, 1e-9)
	assert.InDelta(t, 3.5, pts[1].Y, 1e-9)
}

func TestContext_PlotValDrawsAtEpochEnd(t *testing.T) {
	brd := board.New()
	ctx := &Context{Epoch: 1, NumValBatches: 2, Board: brd}

	ctx.PlotVal("acc", 0.8, 1)
	ctx.PlotVal("acc", 0.6, 1)

	pts := brd.Points("val_acc")
	require.Len(t, pts, 1)
	assert.InDelta(t, 2.0, pts[0].X, 1e-9, "x is the completed epoch count")
	assert.InDelta(t, 0.7, pts[0].Y, 1e-9)
}

func TestContext_PlotWithoutBoard(t *testing.T) {
	ctx := &Context{NumTrainBatches: 4, NumValBatches: 2}
	assert.NotPanics(t, func() {
		ctx.PlotTrain("loss", 1.0, 2)
		ctx.PlotVal("loss", 1.0, 1)
	})
}

func TestContext_PlotTrainWithoutBatches(t *testing.T) {
	brd := board.New()
	ctx := &Context{Board: brd}
	ctx.PlotTrain("loss", 1.0, 2)
	assert.Empty(t, brd.Labels())
}

func TestContext_ObserveWithoutSink(t *testing.T) {
	ctx := &Context{}
	assert.NotPanics(t, func() { ctx.Observe(MetricTrainLoss, 1.0) })
}

func TestContext_ObserveFeedsMetrics(t *testing.T) {
	ctx := &Context{metrics: newMetricSet()}
	ctx.Observe("ppl", 8)
	ctx.Observe("ppl", 4)

	v, ok := ctx.metrics.mean("ppl")
	require.True(t, ok)
	assert.InDelta(t, 6.0, v, 1e-9)
}
