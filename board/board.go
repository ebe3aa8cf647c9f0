// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package board plots scalar training metrics as text in Kiln ML.
//
// The trainer draws (x, y) points under a label ("train_loss",
// "val_acc") as it steps; the board smooths them by averaging every N
// draws into one visible point, then renders all series as an ASCII
// chart or CSV. It is the textual stand-in for a live loss plot: cheap
// enough to run in any terminal, structured enough to feed a real
// plotting tool from the CSV.
//
// Example usage:
//
//	import "github.com/kiln-ml/kiln/board"
//
//	b := board.New()
//	trainer, err := train.New(backend, train.Config{
//	    MaxEpochs: 5,
//	    Board:     b,
//	})
//	// ... trainer.Fit(model, dm) ...
//
//	// ASCII chart on stdout
//	b.Render(os.Stdout)
//
//	// or CSV for a real plotting tool
//	f, _ := os.Create("losses.csv")
//	b.WriteCSV(f)
//
// A Board is used from a single goroutine, matching the strictly
// sequential training loop.
package board

import (
	"github.com/kiln-ml/kiln/internal/board"
)

// Board collects labeled series of averaged points.
type Board = board.Board

// Point is one visible (x, y) sample of a series.
type Point = board.Point

// New creates an empty board.
func New() *Board {
	return board.New()
}
