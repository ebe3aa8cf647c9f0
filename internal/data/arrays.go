package data

import (
	"fmt"
	"math/rand"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Arrays is the core DataModule: flat row-major feature and label
// matrices split into NumTrain training rows followed by NumVal
// validation rows. The other dataset types build their matrices and
// delegate to it.
type Arrays[B tensor.Backend] struct {
	features    []float32
	labels      []float32
	numFeatures int
	numLabels   int
	numTrain    int
	numVal      int
	batchSize   int
	rng         *rand.Rand
	backend     B
}

// ArraysConfig describes the backing matrices and the split.
type ArraysConfig struct {
	Features    []float32 // (NumTrain+NumVal) × NumFeatures, row-major
	Labels      []float32 // (NumTrain+NumVal) × NumLabels, row-major
	NumFeatures int
	NumLabels   int // default 1
	NumTrain    int
	NumVal      int
	BatchSize   int
	Seed        int64 // train-loader shuffle seed
}

// NewArrays validates the config and wraps the matrices.
func NewArrays[B tensor.Backend](config ArraysConfig, backend B) (*Arrays[B], error) {
	if config.NumLabels == 0 {
		config.NumLabels = 1
	}
	if config.NumFeatures < 1 {
		return nil, fmt.Errorf("data: NumFeatures must be at least 1, got %d", config.NumFeatures)
	}
	if config.BatchSize < 1 {
		return nil, fmt.Errorf("data: BatchSize must be at least 1, got %d", config.BatchSize)
	}
	if config.NumTrain < 0 || config.NumVal < 0 {
		return nil, fmt.Errorf("data: negative split: NumTrain=%d NumVal=%d", config.NumTrain, config.NumVal)
	}

	rows := config.NumTrain + config.NumVal
	if got, want := len(config.Features), rows*config.NumFeatures; got != want {
		return nil, fmt.Errorf("data: %d rows of %d features need %d values, got %d",
			rows, config.NumFeatures, want, got)
	}
	if got, want := len(config.Labels), rows*config.NumLabels; got != want {
		return nil, fmt.Errorf("data: %d rows of %d labels need %d values, got %d",
			rows, config.NumLabels, want, got)
	}

	return &Arrays[B]{
		features:    config.Features,
		labels:      config.Labels,
		numFeatures: config.NumFeatures,
		numLabels:   config.NumLabels,
		numTrain:    config.NumTrain,
		numVal:      config.NumVal,
		batchSize:   config.BatchSize,
		rng:         rand.New(rand.NewSource(config.Seed)),
		backend:     backend,
	}, nil
}

// Dataloader returns a one-pass loader over the selected split.
//
// Each train call draws a fresh permutation of the training rows from
// the seeded generator, so epochs see different orderings but the whole
// run stays reproducible. Validation loaders always iterate the
// validation rows in storage order.
func (a *Arrays[B]) Dataloader(train bool) *Loader[B] {
	var order []int
	if train {
		order = a.rng.Perm(a.numTrain)
	} else {
		order = make([]int, a.numVal)
		for i := range order {
			order[i] = a.numTrain + i
		}
	}
	return newLoader(a.features, a.labels, a.numFeatures, a.numLabels, order, a.batchSize, a.backend)
}

// NumFeatures returns the per-row feature width.
func (a *Arrays[B]) NumFeatures() int {
	return a.numFeatures
}

// NumLabels returns the per-row label width.
func (a *Arrays[B]) NumLabels() int {
	return a.numLabels
}

// NumTrain returns the number of training rows.
func (a *Arrays[B]) NumTrain() int {
	return a.numTrain
}

// NumVal returns the number of validation rows.
func (a *Arrays[B]) NumVal() int {
	return a.numVal
}

// BatchSize returns the configured batch size.
func (a *Arrays[B]) BatchSize() int {
	return a.batchSize
}
