package nn

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Parameter is a trainable tensor with an attached gradient slot.
//
// Layers create parameters for their weights and biases. The gradient is
// nil until a backward pass assigns it and is cleared again by ZeroGrad
// at the start of every optimization step.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B]
}

// NewParameter creates a parameter wrapping the given tensor.
//
// The name is local to the owning layer ("weight", "bias"); a
// ParameterSet qualifies it with the layer's position in the network.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	if t == nil {
		panic("NewParameter: tensor must not be nil")
	}
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter's local name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the underlying value tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the accumulated gradient, or nil if no backward pass has
// run since the last ZeroGrad.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad assigns the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// NumElements returns the number of scalar values in the parameter.
func (p *Parameter[B]) NumElements() int {
	return p.tensor.NumElements()
}

// ParameterSet is a named, ordered collection of parameters.
//
// A model's Build phase returns the complete set for its network; the
// optimizer iterates it in insertion order and checkpoints address
// individual tensors by qualified name ("net.0.weight"). Names are
// unique within a set.
type ParameterSet[B tensor.Backend] struct {
	names  []string
	byName map[string]*Parameter[B]
}

// NewParameterSet creates a set holding the given parameters under their
// own local names. Layers with colliding names must be added through
// Collect with distinct prefixes instead.
func NewParameterSet[B tensor.Backend](params ...*Parameter[B]) *ParameterSet[B] {
	s := &ParameterSet[B]{byName: make(map[string]*Parameter[B])}
	for _, p := range params {
		s.Add(p.Name(), p)
	}
	return s
}

// Add registers a parameter under the given qualified name.
//
// Panics on an empty or duplicate name: parameter naming is fixed at
// build time and a collision is a bug in the model's Build method.
func (s *ParameterSet[B]) Add(name string, p *Parameter[B]) {
	if name == "" {
		panic("ParameterSet.Add: empty parameter name")
	}
	if p == nil {
		panic(fmt.Sprintf("ParameterSet.Add: nil parameter %q", name))
	}
	if _, exists := s.byName[name]; exists {
		panic(fmt.Sprintf("ParameterSet.Add: duplicate parameter name %q", name))
	}
	s.names = append(s.names, name)
	s.byName[name] = p
}

// Collect registers every parameter of the module under the prefix.
//
// A plain layer's parameters are named prefix.localName. A Sequential is
// walked recursively with the child index appended, so a two layer
// network collected under "net" yields "net.0.weight", "net.0.bias",
// "net.2.weight", ... matching the order of Sequential children.
func (s *ParameterSet[B]) Collect(prefix string, m Module[B]) {
	if seq, ok := any(m).(*Sequential[B]); ok {
		for i := 0; i < seq.Len(); i++ {
			s.Collect(fmt.Sprintf("%s.%d", prefix, i), seq.Module(i))
		}
		return
	}
	for _, p := range m.Parameters() {
		s.Add(prefix+"."+p.Name(), p)
	}
}

// Get returns the parameter registered under name.
func (s *ParameterSet[B]) Get(name string) (*Parameter[B], bool) {
	p, ok := s.byName[name]
	return p, ok
}

// Names returns the registered names in insertion order.
func (s *ParameterSet[B]) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// All returns the parameters in insertion order.
func (s *ParameterSet[B]) All() []*Parameter[B] {
	out := make([]*Parameter[B], 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.byName[name])
	}
	return out
}

// Len returns the number of parameters in the set.
func (s *ParameterSet[B]) Len() int {
	return len(s.names)
}

// NumElements returns the total number of scalar values across all
// parameters. Useful for model size logging.
func (s *ParameterSet[B]) NumElements() int {
	total := 0
	for _, name := range s.names {
		total += s.byName[name].NumElements()
	}
	return total
}

// ZeroGrad clears the gradients of every parameter in the set.
func (s *ParameterSet[B]) ZeroGrad() {
	for _, name := range s.names {
		s.byName[name].ZeroGrad()
	}
}

// StateDict returns a map of qualified names to raw value tensors.
// The raw tensors are shared, not copied.
func (s *ParameterSet[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor, len(s.names))
	for _, name := range s.names {
		sd[name] = s.byName[name].Tensor().Raw()
	}
	return sd
}

// LoadStateDict copies values from the state dict into the registered
// parameters. Every registered name must be present with a matching
// shape and float32 dtype; extra entries in the dict are ignored.
func (s *ParameterSet[B]) LoadStateDict(sd map[string]*tensor.RawTensor) error {
	for _, name := range s.names {
		raw, ok := sd[name]
		if !ok {
			return fmt.Errorf("missing parameter %q in state dict", name)
		}
		p := s.byName[name]
		if !raw.Shape().Equal(p.Tensor().Shape()) {
			return fmt.Errorf("parameter %q shape mismatch: expected %v, got %v",
				name, p.Tensor().Shape(), raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("parameter %q dtype mismatch: expected float32, got %v",
				name, raw.DType())
		}
		copy(p.Tensor().Data(), raw.AsFloat32())
	}
	return nil
}
