// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train_test

import (
	"io"
	"log"
	"strings"
	"testing"

	"github.com/kiln-ml/kiln/autodiff"
	"github.com/kiln-ml/kiln/backend/cpu"
	"github.com/kiln-ml/kiln/board"
	"github.com/kiln-ml/kiln/data"
	"github.com/kiln-ml/kiln/train"
)

// TestFitThroughPublicAPI drives a whole regression fit using only the
// public packages, the way example programs do.
func TestFitThroughPublicAPI(t *testing.T) {
	backend := autodiff.New(cpu.New())

	ds, err := data.NewSyntheticRegression(data.SyntheticRegressionConfig{
		W:         []float32{2, -3.4},
		Bias:      4.2,
		NumTrain:  200,
		NumVal:    50,
		BatchSize: 20,
		Seed:      1,
	}, backend)
	if err != nil {
		t.Fatalf("NewSyntheticRegression failed: %v", err)
	}

	model := train.NewRegressor(backend, train.RegressorConfig{LR: 0.03, Seed: 2})
	brd := board.New()

	trainer, err := train.New(backend, train.Config{
		MaxEpochs: 3,
		Board:     brd,
		Logger:    log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report, err := trainer.Fit(model, ds)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(report.Epochs) != 3 {
		t.Fatalf("got %d epochs, want 3", len(report.Epochs))
	}
	final := report.Final()
	if final.TrainLoss >= report.Epochs[0].TrainLoss {
		t.Errorf("loss did not decrease: first %.4f, final %.4f",
			report.Epochs[0].TrainLoss, final.TrainLoss)
	}
	if !final.HasValLoss {
		t.Error("validation loss missing from final epoch")
	}

	// The default steps feed the board one curve per phase.
	labels := brd.Labels()
	if len(labels) != 2 || labels[0] != "train_loss" || labels[1] != "val_loss" {
		t.Errorf("board labels = %v, want [train_loss val_loss]", labels)
	}

	var sb strings.Builder
	if err := brd.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if !strings.HasPrefix(sb.String(), "label,x,y\n") {
		t.Errorf("CSV header missing: %q", sb.String()[:min(len(sb.String()), 20)])
	}
}
