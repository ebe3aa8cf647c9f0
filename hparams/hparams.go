// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package hparams captures hyperparameters from config structs in Kiln ML.
//
// Models and the trainer describe themselves with plain config structs
// (LR, MaxEpochs, ...). Capture reflects over the exported fields and
// records name→value pairs into a Set, which then travels into log
// lines and checkpoint metadata. Construct the config once, capture it
// once, and the recorded values always match what the code actually ran
// with.
//
// Example usage:
//
//	import "github.com/kiln-ml/kiln/hparams"
//
//	type Config struct {
//	    LR     float64
//	    Hidden int
//	    Net    func() any // excluded below
//	}
//
//	cfg := Config{LR: 0.01, Hidden: 128}
//	hp := hparams.Capture(cfg, "Net")
//	fmt.Println(hp) // Hidden=128 LR=0.01
package hparams

import (
	"github.com/kiln-ml/kiln/internal/hparams"
)

// Set is a named collection of hyperparameter values.
//
// It renders as sorted "k=v" pairs through String and as a JSON object
// through MarshalJSON, the forms used in log lines and checkpoints.
type Set = hparams.Set

// Capture records the exported fields of cfg into a Set, skipping any
// field named in ignore. cfg may be a struct, a pointer to one, or a
// map[string]any. Embedded structs are flattened the way Go promotes
// their fields, with outer fields winning on collision.
//
// Anything else (nil, scalars, slices) yields an empty Set: capture
// never fails, it just has nothing to record.
func Capture(cfg any, ignore ...string) Set {
	return hparams.Capture(cfg, ignore...)
}
