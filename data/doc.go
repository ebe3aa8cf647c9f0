// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides batch loaders over in-memory datasets for Kiln ML.
//
// A DataModule owns a dataset split into training and validation rows
// and hands out one-pass Loaders. Training loaders visit the training
// rows in a fresh random order on every call; validation loaders always
// visit the validation rows in the same order. Batches materialize on
// demand as float32 tensors, the uniform carrier type of the pipeline:
// class labels and token ids ride as float32 and are cast back to
// integers at the loss or embedding boundary.
//
// # Basic Usage
//
//	import (
//	    "github.com/kiln-ml/kiln/autodiff"
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/data"
//	)
//
//	backend := autodiff.New(cpu.New())
//
//	// A synthetic linear-regression dataset with known true weights.
//	dm, err := data.NewSyntheticRegression(data.SyntheticRegressionConfig{
//	    W:    []float32{2, -3.4},
//	    Bias: 4.2,
//	}, backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	loader := dm.Dataloader(true)
//	for {
//	    batch, ok := loader.Next()
//	    if !ok {
//	        break
//	    }
//	    _ = batch.X // [batchSize, 2]
//	    _ = batch.Y // [batchSize, 1]
//	}
//
// # Datasets
//
// Four DataModule implementations ship with the package:
//
//   - Arrays: caller-supplied row-major feature and label matrices.
//     The other three build their matrices and delegate to it.
//   - SyntheticRegression: generated y = X·w + b + noise data with the
//     generating weights kept for comparison against a trained model.
//   - MNIST: the four gzipped IDX files of the handwritten digit
//     dataset, with optional SHA-256 verification of the downloads.
//   - TextSequences: a tokenized text corpus cut into next-token
//     prediction windows.
//
// # Loaders
//
// A Loader is a one-pass iterator; get a fresh one from the DataModule
// for every epoch. Peek returns the next batch without consuming it,
// which the trainer uses to learn the input shape before the first
// step. The last batch of a pass is short when the batch size does not
// divide the row count.
package data
