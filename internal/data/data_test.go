package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-ml/kiln/internal/backend/cpu"
)

// rowTagged builds an Arrays whose every feature and label equals its
// row index, so batch contents identify exactly which rows were drawn.
func rowTagged(t *testing.T, numTrain, numVal, numFeatures, batchSize int, seed int64) *Arrays[*cpu.CPUBackend] {
	t.Helper()
	rows := numTrain + numVal
	features := make([]float32, rows*numFeatures)
	labels := make([]float32, rows)
	for r := 0; r < rows; r++ {
		for j := 0; j < numFeatures; j++ {
			features[r*numFeatures+j] = float32(r)
		}
		labels[r] = float32(r)
	}
	a, err := NewArrays(ArraysConfig{
		Features:    features,
		Labels:      labels,
		NumFeatures: numFeatures,
		NumTrain:    numTrain,
		NumVal:      numVal,
		BatchSize:   batchSize,
		Seed:        seed,
	}, cpu.New())
	require.NoError(t, err)
	return a
}

// drainRows consumes the loader and returns the label of every row in
// visit order.
func drainRows(t *testing.T, l *Loader[*cpu.CPUBackend]) []float32 {
	t.Helper()
	var rows []float32
	for {
		b, ok := l.Next()
		if !ok {
			return rows
		}
		rows = append(rows, b.Y.Data()...)
	}
}

func TestLoader_BatchCount(t *testing.T) {
	tests := []struct {
		name        string
		numTrain    int
		batchSize   int
		wantBatches int
	}{
		{"exact division", 20, 5, 4},
		{"short last batch", 10, 3, 4},
		{"single batch", 4, 8, 1},
		{"empty", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := rowTagged(t, tt.numTrain, 0, 2, tt.batchSize, 1)
			l := a.Dataloader(true)
			assert.Equal(t, tt.wantBatches, l.Len())

			count := 0
			for {
				_, ok := l.Next()
				if !ok {
					break
				}
				count++
			}
			assert.Equal(t, tt.wantBatches, count)

			_, ok := l.Next()
			assert.False(t, ok, "exhausted loader must stay exhausted")
		})
	}
}

func TestLoader_ShortLastBatch(t *testing.T) {
	a := rowTagged(t, 10, 0, 2, 3, 1)
	l := a.Dataloader(true)

	sizes := []int{}
	for {
		b, ok := l.Next()
		if !ok {
			break
		}
		sizes = append(sizes, b.X.Shape()[0])
		assert.Equal(t, 2, b.X.Shape()[1])
	}
	assert.Equal(t, []int{3, 3, 3, 1}, sizes)
}

func TestLoader_CoversEachTrainRowOnce(t *testing.T) {
	a := rowTagged(t, 20, 5, 2, 6, 3)
	rows := drainRows(t, a.Dataloader(true))

	require.Len(t, rows, 20)
	seen := make(map[float32]int)
	for _, r := range rows {
		seen[r]++
		assert.Less(t, r, float32(20), "training loader must never yield a validation row")
	}
	for r := 0; r < 20; r++ {
		assert.Equal(t, 1, seen[float32(r)], "row %d", r)
	}
}

func TestLoader_TrainOrderingsDiffer(t *testing.T) {
	a := rowTagged(t, 20, 0, 1, 20, 7)
	first := drainRows(t, a.Dataloader(true))
	second := drainRows(t, a.Dataloader(true))

	require.Len(t, second, 20)
	assert.NotEqual(t, first, second, "consecutive epochs should see different orderings")
}

func TestLoader_ValOrderIdentical(t *testing.T) {
	a := rowTagged(t, 10, 8, 1, 3, 7)
	first := drainRows(t, a.Dataloader(false))
	second := drainRows(t, a.Dataloader(false))

	require.Len(t, first, 8)
	assert.Equal(t, first, second)
	// Validation rows follow the training rows in storage order.
	for i, r := range first {
		assert.Equal(t, float32(10+i), r)
	}
}

func TestLoader_PeekDoesNotConsume(t *testing.T) {
	a := rowTagged(t, 6, 0, 1, 2, 1)
	l := a.Dataloader(true)

	peeked, ok := l.Peek()
	require.True(t, ok)
	again, ok := l.Peek()
	require.True(t, ok)
	assert.Equal(t, peeked.X.Data(), again.X.Data(), "repeated peeks see the same batch")

	next, ok := l.Next()
	require.True(t, ok)
	assert.Equal(t, peeked.X.Data(), next.X.Data(), "Next returns the peeked batch")

	rest := drainRows(t, l)
	assert.Len(t, rest, 4, "peek must not change the total row count")
}

func TestLoader_PeekExhausted(t *testing.T) {
	a := rowTagged(t, 2, 0, 1, 2, 1)
	l := a.Dataloader(true)
	_, ok := l.Next()
	require.True(t, ok)

	_, ok = l.Peek()
	assert.False(t, ok)
}

func TestLoader_BatchAlignment(t *testing.T) {
	a := rowTagged(t, 12, 0, 3, 4, 9)
	l := a.Dataloader(true)

	for {
		b, ok := l.Next()
		if !ok {
			break
		}
		bs := b.X.Shape()[0]
		require.Equal(t, []int{bs, 1}, []int(b.Y.Shape()))
		for i := 0; i < bs; i++ {
			row := b.Y.Data()[i]
			for j := 0; j < 3; j++ {
				assert.Equal(t, row, b.X.Data()[i*3+j], "features and label must come from the same row")
			}
		}
	}
}

func TestNewArrays_Validation(t *testing.T) {
	backend := cpu.New()
	tests := []struct {
		name   string
		config ArraysConfig
	}{
		{
			"feature length mismatch",
			ArraysConfig{Features: make([]float32, 5), Labels: make([]float32, 2), NumFeatures: 3, NumTrain: 2, BatchSize: 1},
		},
		{
			"label length mismatch",
			ArraysConfig{Features: make([]float32, 6), Labels: make([]float32, 3), NumFeatures: 3, NumTrain: 2, BatchSize: 1},
		},
		{
			"zero batch size",
			ArraysConfig{Features: make([]float32, 6), Labels: make([]float32, 2), NumFeatures: 3, NumTrain: 2},
		},
		{
			"zero features",
			ArraysConfig{NumTrain: 0, BatchSize: 1},
		},
		{
			"negative split",
			ArraysConfig{Features: []float32{}, Labels: []float32{}, NumFeatures: 1, NumTrain: -1, NumVal: 1, BatchSize: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArrays(tt.config, backend)
			assert.Error(t, err)
		})
	}
}

func TestSyntheticRegression(t *testing.T) {
	backend := cpu.New()
	ds, err := NewSyntheticRegression(SyntheticRegressionConfig{
		W:         []float32{2, -3.4},
		Bias:      4.2,
		NumTrain:  32,
		NumVal:    16,
		BatchSize: 8,
		Seed:      1,
	}, backend)
	require.NoError(t, err)

	assert.Equal(t, []float32{2, -3.4}, ds.W())
	assert.InDelta(t, 4.2, ds.Bias(), 1e-6)
	assert.Equal(t, 2, ds.NumFeatures())

	l := ds.Dataloader(true)
	assert.Equal(t, 4, l.Len())

	// y reconstructs from the generating weights up to the noise term
	// (default sigma 0.01; 0.2 is a >10 sigma margin).
	for {
		b, ok := l.Next()
		if !ok {
			break
		}
		bs := b.X.Shape()[0]
		for i := 0; i < bs; i++ {
			x0 := float64(b.X.Data()[i*2])
			x1 := float64(b.X.Data()[i*2+1])
			want := 2*x0 - 3.4*x1 + 4.2
			assert.InDelta(t, want, float64(b.Y.Data()[i]), 0.2)
		}
	}
}

func TestSyntheticRegression_NeedsWeights(t *testing.T) {
	_, err := NewSyntheticRegression(SyntheticRegressionConfig{}, cpu.New())
	assert.Error(t, err)
}
