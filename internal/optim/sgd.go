package optim

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Without momentum:
//
//	param -= lr * grad
//
// With momentum:
//
//	velocity = momentum * velocity + grad
//	param   -= lr * velocity
//
// Velocity buffers allocate lazily on the first step that sees a
// gradient for a parameter.
type SGD[B tensor.Backend] struct {
	params     *nn.ParameterSet[B]
	lr         float64
	momentum   float64
	velocities map[string]*tensor.RawTensor
}

// SGDConfig holds the SGD hyperparameters.
type SGDConfig struct {
	LR       float64 // learning rate (default 0.01)
	Momentum float64 // momentum factor in [0, 1) (default 0)
}

// NewSGD creates an SGD optimizer over the parameter set.
func NewSGD[B tensor.Backend](params *nn.ParameterSet[B], config SGDConfig) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[string]*tensor.RawTensor),
	}
}

// Name returns "SGD".
func (s *SGD[B]) Name() string {
	return "SGD"
}

// Step applies one gradient-descent update in place.
func (s *SGD[B]) Step() {
	for _, name := range s.params.Names() {
		param, _ := s.params.Get(name)
		grad := param.Grad()
		if grad == nil {
			continue
		}

		paramData := param.Tensor().Raw().AsFloat32()
		gradData := grad.Raw().AsFloat32()
		lr := float32(s.lr)

		if s.momentum == 0 {
			for i := range paramData {
				paramData[i] -= lr * gradData[i]
			}
			continue
		}

		velocity := s.velocities[name]
		if velocity == nil {
			velocity = tensor.MustNewRaw(param.Tensor().Shape(), tensor.Float32, param.Tensor().Device())
			s.velocities[name] = velocity
		}
		velData := velocity.AsFloat32()
		mom := float32(s.momentum)
		for i := range paramData {
			velData[i] = mom*velData[i] + gradData[i]
			paramData[i] -= lr * velData[i]
		}
	}
}

// ZeroGrad clears every parameter's gradient slot.
func (s *SGD[B]) ZeroGrad() {
	s.params.ZeroGrad()
}

// LR returns the current learning rate.
func (s *SGD[B]) LR() float64 {
	return s.lr
}

// SetLR replaces the learning rate.
func (s *SGD[B]) SetLR(lr float64) {
	s.lr = lr
}

// StateDict exports the velocity buffers as "velocity.<param name>".
// Without momentum the state is empty.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return state
	}
	for name, velocity := range s.velocities {
		state["velocity."+name] = velocity
	}
	return state
}

// LoadStateDict restores velocity buffers. Parameters without a saved
// velocity start fresh on the next step.
func (s *SGD[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}
	s.velocities = make(map[string]*tensor.RawTensor)
	for _, name := range s.params.Names() {
		raw, ok := state["velocity."+name]
		if !ok {
			continue
		}
		param, _ := s.params.Get(name)
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("velocity shape mismatch for %q: expected %v, got %v",
				name, param.Tensor().Shape(), raw.Shape())
		}
		s.velocities[name] = raw
	}
	return nil
}
