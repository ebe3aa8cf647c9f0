// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package data

import (
	"github.com/kiln-ml/kiln/internal/data"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Batch is one step's worth of features and labels. Batches are
// transient: consumed by a single step, never retained.
type Batch[B tensor.Backend] = data.Batch[B]

// DataModule hands out loaders over a train/validation split.
//
// All dataset types implement this interface.
type DataModule[B tensor.Backend] = data.DataModule[B]

// Loader iterates a row ordering in batches of fixed size. It is a
// one-pass iterator; get a new one from the DataModule for the next
// epoch.
type Loader[B tensor.Backend] = data.Loader[B]

// Arrays is the core DataModule: flat row-major feature and label
// matrices split into training rows followed by validation rows.
type Arrays[B tensor.Backend] = data.Arrays[B]

// ArraysConfig describes the backing matrices and the split.
type ArraysConfig = data.ArraysConfig

// NewArrays validates the config and wraps the matrices.
//
// Example:
//
//	dm, err := data.NewArrays(data.ArraysConfig{
//	    Features:    features, // 150 rows × 4 columns, row-major
//	    Labels:      labels,   // 150 rows × 1 column
//	    NumFeatures: 4,
//	    NumTrain:    120,
//	    NumVal:      30,
//	    BatchSize:   16,
//	}, backend)
func NewArrays[B tensor.Backend](config ArraysConfig, backend B) (*Arrays[B], error) {
	return data.NewArrays(config, backend)
}

// SyntheticRegression generates a linear-regression dataset
//
//	y = X·w + bias + noise·ε
//
// with X and ε drawn from N(0, 1). The generating weights are kept so
// a trained model can be compared against the ground truth via W and
// Bias.
type SyntheticRegression[B tensor.Backend] = data.SyntheticRegression[B]

// SyntheticRegressionConfig describes the generator. Zero values fall
// back to 1000 train rows, 1000 validation rows, batch size 32 and
// noise 0.01.
type SyntheticRegressionConfig = data.SyntheticRegressionConfig

// NewSyntheticRegression generates the dataset.
func NewSyntheticRegression[B tensor.Backend](config SyntheticRegressionConfig, backend B) (*SyntheticRegression[B], error) {
	return data.NewSyntheticRegression(config, backend)
}

// MNIST dataset filenames as distributed (gzipped IDX format).
const (
	MNISTTrainImages = data.MNISTTrainImages
	MNISTTrainLabels = data.MNISTTrainLabels
	MNISTTestImages  = data.MNISTTestImages
	MNISTTestLabels  = data.MNISTTestLabels
)

// MNISTDigests holds the SHA-256 digests of the canonical distribution
// files, for passing as MNISTConfig.Digests.
var MNISTDigests = data.MNISTDigests

// MNIST loads the four gzipped IDX files from a directory into a
// train/test Arrays module. Pixels are normalized to [0, 1] and each
// image is a flat row of rows×cols features; labels are the digit
// classes 0-9 as float32.
type MNIST[B tensor.Backend] = data.MNIST[B]

// MNISTConfig locates and validates the dataset files.
type MNISTConfig = data.MNISTConfig

// NewMNIST reads and validates the dataset.
//
// Example:
//
//	dm, err := data.NewMNIST(data.MNISTConfig{
//	    Root:      "testdata/mnist",
//	    BatchSize: 64,
//	    Digests:   data.MNISTDigests,
//	}, backend)
func NewMNIST[B tensor.Backend](config MNISTConfig, backend B) (*MNIST[B], error) {
	return data.NewMNIST(config, backend)
}

// TextSequences turns a text corpus into a next-token prediction
// dataset: the tokenized corpus is cut into sliding windows of SeqLen
// consecutive token ids (the features) each paired with the id that
// follows the window (the label).
type TextSequences[B tensor.Backend] = data.TextSequences[B]

// TextSequencesConfig describes the corpus and windowing.
type TextSequencesConfig = data.TextSequencesConfig

// NewTextSequences tokenizes the corpus and builds the windows.
//
// Example:
//
//	dm, err := data.NewTextSequences(data.TextSequencesConfig{
//	    Text:   corpus,
//	    SeqLen: 8,
//	    NumVal: 200,
//	}, backend)
func NewTextSequences[B tensor.Backend](config TextSequencesConfig, backend B) (*TextSequences[B], error) {
	return data.NewTextSequences(config, backend)
}
