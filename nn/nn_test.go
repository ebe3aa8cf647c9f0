// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/kiln-ml/kiln/internal/backend/cpu"
	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/nn"
)

// TestModuleInterface verifies that concrete types implement the Module interface.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name   string
		module nn.Module[*cpu.CPUBackend]
	}{
		{
			name:   "Linear",
			module: nn.NewLinear(10, 5, rng, backend),
		},
		{
			name:   "Dropout",
			module: nn.NewDropout[*cpu.CPUBackend](0.5, rng),
		},
		{
			name: "Sequential",
			module: nn.NewSequential[*cpu.CPUBackend](
				nn.NewLinear(10, 5, rng, backend),
				nn.NewReLU[*cpu.CPUBackend](),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tensor.Randn[float32](tensor.Shape{2, 10}, rng, backend)
			out := tt.module.Forward(input)
			if out == nil {
				t.Fatal("Forward() returned nil")
			}
			// Parameters may be empty for stateless modules, never panic.
			_ = tt.module.Parameters()
		})
	}
}

// TestSequentialForward verifies shapes through a small MLP.
func TestSequentialForward(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(7))

	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewFlatten[*cpu.CPUBackend](),
		nn.NewLinear(12, 8, rng, backend),
		nn.NewTanh[*cpu.CPUBackend](),
		nn.NewLinear(8, 3, rng, backend),
	)

	input := tensor.Randn[float32](tensor.Shape{5, 3, 4}, rng, backend)
	out := model.Forward(input)
	if !out.Shape().Equal(tensor.Shape{5, 3}) {
		t.Errorf("output shape = %v, want [5 3]", out.Shape())
	}
}

// TestParameterSetCollect verifies qualified naming across a Sequential.
func TestParameterSetCollect(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(3))

	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(4, 4, rng, backend),
		nn.NewReLU[*cpu.CPUBackend](),
		nn.NewLinear(4, 2, rng, backend),
	)

	params := nn.NewParameterSet[*cpu.CPUBackend]()
	params.Collect("net", model)

	want := []string{"net.0.weight", "net.0.bias", "net.2.weight", "net.2.bias"}
	got := params.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestCheckpointRoundtrip saves parameters and restores them into a
// freshly built network.
func TestCheckpointRoundtrip(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "model.kiln")

	build := func(seed int64) (*nn.Sequential[*cpu.CPUBackend], *nn.ParameterSet[*cpu.CPUBackend]) {
		rng := rand.New(rand.NewSource(seed))
		m := nn.NewSequential[*cpu.CPUBackend](
			nn.NewLinear(3, 4, rng, backend),
			nn.NewSigmoid[*cpu.CPUBackend](),
			nn.NewLinear(4, 2, rng, backend),
		)
		ps := nn.NewParameterSet[*cpu.CPUBackend]()
		ps.Collect("net", m)
		return m, ps
	}

	origModel, origParams := build(11)
	info := nn.CheckpointInfo{ModelType: "mlp", Epoch: 2, Step: 64, Loss: 0.5}
	if err := nn.SaveCheckpoint(path, origParams, nil, info); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	// Different seed: weights start out different, then match after load.
	newModel, newParams := build(99)
	_, loaded, err := nn.LoadCheckpoint(path, newParams)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.Epoch != 2 || loaded.Step != 64 {
		t.Errorf("loaded info = %+v, want epoch 2 step 64", loaded)
	}

	rng := rand.New(rand.NewSource(5))
	input := tensor.Randn[float32](tensor.Shape{3, 3}, rng, backend)
	a := origModel.Forward(input).Data()
	b := newModel.Forward(input).Data()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("restored model diverges at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
