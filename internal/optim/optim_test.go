package optim_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kiln-ml/kiln/internal/autodiff"
	"github.com/kiln-ml/kiln/internal/backend/cpu"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newParamSet(t *testing.T, backend Backend, values []float32) (*nn.ParameterSet[Backend], *nn.Parameter[Backend]) {
	t.Helper()
	w, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	p := nn.NewParameter("weight", w)
	return nn.NewParameterSet(p), p
}

func setGrad(t *testing.T, backend Backend, p *nn.Parameter[Backend], values []float32) {
	t.Helper()
	g, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	p.SetGrad(g)
}

func TestSGD_Step(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, p := newParamSet(t, backend, []float32{1, 2, 3})
	setGrad(t, backend, p, []float32{0.5, 0.5, 0.5})

	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.1})
	opt.Step()

	want := []float32{0.95, 1.95, 2.95}
	got := p.Tensor().Data()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("param[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSGD_SkipsNilGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, p := newParamSet(t, backend, []float32{1, 2, 3})

	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.1})
	opt.Step()

	got := p.Tensor().Data()
	for i, want := range []float32{1, 2, 3} {
		if got[i] != want {
			t.Errorf("param[%d] = %v, want unchanged %v", i, got[i], want)
		}
	}
}

func TestSGD_Momentum(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, p := newParamSet(t, backend, []float32{1})

	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// Step 1: v = g = 1, param = 1 - 0.1*1 = 0.9
	setGrad(t, backend, p, []float32{1})
	opt.Step()
	if got := p.Tensor().Data()[0]; math.Abs(float64(got-0.9)) > 1e-6 {
		t.Errorf("after step 1: param = %v, want 0.9", got)
	}

	// Step 2: v = 0.9*1 + 1 = 1.9, param = 0.9 - 0.19 = 0.71
	setGrad(t, backend, p, []float32{1})
	opt.Step()
	if got := p.Tensor().Data()[0]; math.Abs(float64(got-0.71)) > 1e-6 {
		t.Errorf("after step 2: param = %v, want 0.71", got)
	}
}

func TestSGD_ZeroGrad(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, p := newParamSet(t, backend, []float32{1})
	setGrad(t, backend, p, []float32{1})

	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.1})
	opt.ZeroGrad()

	if p.Grad() != nil {
		t.Error("ZeroGrad should clear parameter gradients")
	}
}

func TestSGD_LR(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, _ := newParamSet(t, backend, []float32{1})

	opt := optim.NewSGD(params, optim.SGDConfig{})
	if opt.LR() != 0.01 {
		t.Errorf("default LR = %v, want 0.01", opt.LR())
	}
	opt.SetLR(0.5)
	if opt.LR() != 0.5 {
		t.Errorf("LR after SetLR = %v, want 0.5", opt.LR())
	}
}

func TestSGD_StateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, p := newParamSet(t, backend, []float32{1, 1})

	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	setGrad(t, backend, p, []float32{1, 2})
	opt.Step()

	state := opt.StateDict()
	if len(state) != 1 {
		t.Fatalf("StateDict has %d entries, want 1", len(state))
	}
	vel, ok := state["velocity.weight"]
	if !ok {
		t.Fatal("missing velocity.weight in state dict")
	}
	if got := vel.AsFloat32(); got[0] != 1 || got[1] != 2 {
		t.Errorf("velocity = %v, want [1 2]", got)
	}

	// A fresh optimizer restored from the state continues the trajectory.
	params2, p2 := newParamSet(t, backend, []float32{0.9, 0.8})
	opt2 := optim.NewSGD(params2, optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	if err := opt2.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	setGrad(t, backend, p2, []float32{0, 0})
	opt2.Step()
	// v = 0.9*[1 2] + 0 = [0.9 1.8]; param -= 0.1*v
	want := []float32{0.81, 0.62}
	got := p2.Tensor().Data()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("restored param[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSGD_LoadStateDictShapeMismatch(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, _ := newParamSet(t, backend, []float32{1, 2})

	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	bad := tensor.MustNewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	err := opt.LoadStateDict(map[string]*tensor.RawTensor{"velocity.weight": bad})
	if err == nil {
		t.Error("expected shape mismatch error")
	}
}

func TestAdam_Step(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, p := newParamSet(t, backend, []float32{1})
	setGrad(t, backend, p, []float32{0.5})

	opt := optim.NewAdam(params, optim.AdamConfig{LR: 0.001})
	opt.Step()

	// First Adam step moves the parameter by ~lr against the gradient
	// sign (mHat/sqrt(vHat) ≈ 1 at t=1).
	got := p.Tensor().Data()[0]
	want := float32(1) - 0.001*0.5/(float32(math.Sqrt(0.25))+1e-8)
	if math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("param = %v, want %v", got, want)
	}
	if opt.Timestep() != 1 {
		t.Errorf("Timestep() = %d, want 1", opt.Timestep())
	}
}

func TestAdam_Defaults(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, _ := newParamSet(t, backend, []float32{1})

	opt := optim.NewAdam(params, optim.AdamConfig{})
	if opt.LR() != 0.001 {
		t.Errorf("default LR = %v, want 0.001", opt.LR())
	}
}

func TestAdam_StateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	params, p := newParamSet(t, backend, []float32{1, 2})

	opt := optim.NewAdam(params, optim.AdamConfig{LR: 0.01})
	setGrad(t, backend, p, []float32{0.1, 0.2})
	opt.Step()
	setGrad(t, backend, p, []float32{0.1, 0.2})
	opt.Step()

	state := opt.StateDict()
	if _, ok := state["m.weight"]; !ok {
		t.Fatal("missing m.weight in state dict")
	}
	if _, ok := state["v.weight"]; !ok {
		t.Fatal("missing v.weight in state dict")
	}

	params2, _ := newParamSet(t, backend, []float32{1, 2})
	opt2 := optim.NewAdam(params2, optim.AdamConfig{LR: 0.01})
	if err := opt2.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	if opt2.Timestep() != 2 {
		t.Errorf("restored Timestep() = %d, want 2", opt2.Timestep())
	}
}

// TestSGD_MinimizesQuadratic trains x toward the minimum of (x-3)² via
// the full autodiff pipeline to confirm the optimizer and tape agree.
func TestSGD_MinimizesQuadratic(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(7))

	x, err := tensor.FromSlice([]float32{rng.Float32() * 10}, tensor.Shape{1}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	p := nn.NewParameter("x", x)
	params := nn.NewParameterSet(p)
	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.1})

	three, _ := tensor.FromSlice([]float32{3}, tensor.Shape{1}, backend)
	backend.Tape().StartRecording()

	for i := 0; i < 100; i++ {
		opt.ZeroGrad()
		diff := p.Tensor().Sub(three)
		loss := diff.Mul(diff).Mean()

		grads := autodiff.Backward(loss, backend)
		if g := grads[p.Tensor().Raw()]; g != nil {
			p.SetGrad(tensor.New[float32](g, backend))
		}
		opt.Step()
		backend.Tape().Clear()
	}

	if got := p.Tensor().Data()[0]; math.Abs(float64(got-3)) > 1e-2 {
		t.Errorf("x converged to %v, want ~3", got)
	}
}
