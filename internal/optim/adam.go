package optim

import (
	"fmt"
	"math"

	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Adam implements adaptive moment estimation (Kingma & Ba, 2014).
//
// Per element:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g²
//	mHat = m / (1 - beta1^t)
//	vHat = v / (1 - beta2^t)
//	param -= lr * mHat / (sqrt(vHat) + eps)
//
// Moment buffers allocate lazily per parameter on the first step that
// sees a gradient for it.
type Adam[B tensor.Backend] struct {
	params *nn.ParameterSet[B]
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int // step count for bias correction
	m      map[string]*tensor.RawTensor
	v      map[string]*tensor.RawTensor
}

// AdamConfig holds the Adam hyperparameters.
type AdamConfig struct {
	LR    float64    // learning rate (default 0.001)
	Betas [2]float64 // moment decay rates (default 0.9, 0.999)
	Eps   float64    // denominator stabilizer (default 1e-8)
}

// NewAdam creates an Adam optimizer over the parameter set.
func NewAdam[B tensor.Backend](params *nn.ParameterSet[B], config AdamConfig) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam[B]{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[string]*tensor.RawTensor),
		v:      make(map[string]*tensor.RawTensor),
	}
}

// Name returns "Adam".
func (a *Adam[B]) Name() string {
	return "Adam"
}

// Step applies one bias-corrected Adam update in place.
func (a *Adam[B]) Step() {
	a.t++
	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	for _, name := range a.params.Names() {
		param, _ := a.params.Get(name)
		grad := param.Grad()
		if grad == nil {
			continue
		}

		m := a.m[name]
		if m == nil {
			m = tensor.MustNewRaw(param.Tensor().Shape(), tensor.Float32, param.Tensor().Device())
			a.m[name] = m
		}
		v := a.v[name]
		if v == nil {
			v = tensor.MustNewRaw(param.Tensor().Shape(), tensor.Float32, param.Tensor().Device())
			a.v[name] = v
		}

		paramData := param.Tensor().Raw().AsFloat32()
		gradData := grad.Raw().AsFloat32()
		mData := m.AsFloat32()
		vData := v.AsFloat32()

		beta1 := float32(a.beta1)
		beta2 := float32(a.beta2)
		lr := float32(a.lr)
		eps := float32(a.eps)
		bc1 := float32(biasCorrection1)
		bc2 := float32(biasCorrection2)

		for i := range paramData {
			g := gradData[i]
			mData[i] = beta1*mData[i] + (1-beta1)*g
			vData[i] = beta2*vData[i] + (1-beta2)*g*g
			mHat := mData[i] / bc1
			vHat := vData[i] / bc2
			paramData[i] -= lr * mHat / (float32(math.Sqrt(float64(vHat))) + eps)
		}
	}
}

// ZeroGrad clears every parameter's gradient slot.
func (a *Adam[B]) ZeroGrad() {
	a.params.ZeroGrad()
}

// LR returns the current learning rate.
func (a *Adam[B]) LR() float64 {
	return a.lr
}

// SetLR replaces the learning rate.
func (a *Adam[B]) SetLR(lr float64) {
	a.lr = lr
}

// Timestep returns the number of steps taken, which drives bias
// correction.
func (a *Adam[B]) Timestep() int {
	return a.t
}

// StateDict exports the moment buffers as "m.<name>" / "v.<name>".
// The step count rides along as a single-element tensor under "t".
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for name, m := range a.m {
		state["m."+name] = m
	}
	for name, v := range a.v {
		state["v."+name] = v
	}
	step := tensor.MustNewRaw(tensor.Shape{1}, tensor.Int64, tensor.CPU)
	step.AsInt64()[0] = int64(a.t)
	state["t"] = step
	return state
}

// LoadStateDict restores moment buffers and the step count.
func (a *Adam[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	a.m = make(map[string]*tensor.RawTensor)
	a.v = make(map[string]*tensor.RawTensor)
	for _, name := range a.params.Names() {
		param, _ := a.params.Get(name)
		for _, buf := range []struct {
			key string
			dst map[string]*tensor.RawTensor
		}{
			{"m." + name, a.m},
			{"v." + name, a.v},
		} {
			raw, ok := state[buf.key]
			if !ok {
				continue
			}
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("moment shape mismatch for %q: expected %v, got %v",
					buf.key, param.Tensor().Shape(), raw.Shape())
			}
			buf.dst[name] = raw
		}
	}
	if step, ok := state["t"]; ok && step.DType() == tensor.Int64 {
		a.t = int(step.AsInt64()[0])
	}
	return nil
}
