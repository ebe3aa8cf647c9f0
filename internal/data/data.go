// Package data provides batch loaders over in-memory datasets.
//
// A DataModule owns a dataset split into training and validation rows
// and hands out one-pass Loaders. Training loaders visit the training
// rows in a fresh random order on every call; validation loaders always
// visit the validation rows in the same order. Batches materialize on
// demand as float32 tensors, the uniform carrier type of the pipeline:
// class labels and token ids ride as float32 and are cast back to
// integers at the loss or embedding boundary.
//
// Implementations: Arrays over caller-supplied matrices, plus three
// dataset front-ends built on it (SyntheticRegression, MNIST,
// TextSequences).
package data

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Batch is one step's worth of features and labels. Batches are
// transient: consumed by a single step, never retained.
type Batch[B tensor.Backend] struct {
	X *tensor.Tensor[float32, B] // [batchSize, numFeatures]
	Y *tensor.Tensor[float32, B] // [batchSize, numLabels]
}

// DataModule hands out loaders over a train/validation split.
type DataModule[B tensor.Backend] interface {
	// Dataloader returns a fresh one-pass loader. train selects the
	// split; a training loader draws a new row order each call.
	Dataloader(train bool) *Loader[B]
}

// Loader iterates a row ordering in batches of fixed size (the last
// batch is short when the batch size does not divide the row count).
// It is a one-pass iterator; get a new one from the DataModule for the
// next epoch.
type Loader[B tensor.Backend] struct {
	features    []float32
	labels      []float32
	numFeatures int
	numLabels   int
	order       []int
	batchSize   int
	backend     B
	pos         int
	peeked      *Batch[B]
}

func newLoader[B tensor.Backend](features, labels []float32, numFeatures, numLabels int, order []int, batchSize int, backend B) *Loader[B] {
	return &Loader[B]{
		features:    features,
		labels:      labels,
		numFeatures: numFeatures,
		numLabels:   numLabels,
		order:       order,
		batchSize:   batchSize,
		backend:     backend,
	}
}

// Len returns the number of batches the loader yields in total:
// ceil(rows / batchSize).
func (l *Loader[B]) Len() int {
	return (len(l.order) + l.batchSize - 1) / l.batchSize
}

// Peek returns the batch the next Next call will return, without
// advancing. ok is false once the loader is exhausted.
//
// The trainer peeks the first batch to learn the input shape for
// Build before consuming anything.
func (l *Loader[B]) Peek() (Batch[B], bool) {
	if l.peeked == nil {
		if l.pos >= len(l.order) {
			return Batch[B]{}, false
		}
		end := min(l.pos+l.batchSize, len(l.order))
		b := l.materialize(l.order[l.pos:end])
		l.peeked = &b
	}
	return *l.peeked, true
}

// Next returns the next batch. ok is false once the loader is
// exhausted.
func (l *Loader[B]) Next() (Batch[B], bool) {
	b, ok := l.Peek()
	if !ok {
		return Batch[B]{}, false
	}
	l.peeked = nil
	l.pos = min(l.pos+l.batchSize, len(l.order))
	return b, true
}

// materialize gathers the given rows into fresh batch tensors.
func (l *Loader[B]) materialize(rows []int) Batch[B] {
	bs := len(rows)
	x := make([]float32, bs*l.numFeatures)
	y := make([]float32, bs*l.numLabels)
	for i, row := range rows {
		copy(x[i*l.numFeatures:(i+1)*l.numFeatures], l.features[row*l.numFeatures:(row+1)*l.numFeatures])
		copy(y[i*l.numLabels:(i+1)*l.numLabels], l.labels[row*l.numLabels:(row+1)*l.numLabels])
	}
	return Batch[B]{
		X: mustFromSlice(x, tensor.Shape{bs, l.numFeatures}, l.backend),
		Y: mustFromSlice(y, tensor.Shape{bs, l.numLabels}, l.backend),
	}
}

// mustFromSlice builds a tensor from internally consistent data; a
// failure here is a loader bug, not a caller error.
func mustFromSlice[B tensor.Backend](data []float32, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	t, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		panic(fmt.Sprintf("data: batch construction failed: %v", err))
	}
	return t
}
