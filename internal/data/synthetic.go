package data

import (
	"fmt"
	"math/rand"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// SyntheticRegression generates a linear-regression dataset
//
//	y = X·w + bias + noise·ε
//
// with X and ε drawn from N(0, 1). The generating weights are kept so
// a trained model can be compared against the ground truth.
type SyntheticRegression[B tensor.Backend] struct {
	*Arrays[B]
	w    []float32
	bias float32
}

// SyntheticRegressionConfig describes the generator. Zero values fall
// back to 1000 train rows, 1000 validation rows, batch size 32 and
// noise 0.01.
type SyntheticRegressionConfig struct {
	W         []float32 // true weights; length sets the feature width
	Bias      float32
	Noise     float64
	NumTrain  int
	NumVal    int
	BatchSize int
	Seed      int64
}

// NewSyntheticRegression generates the dataset.
func NewSyntheticRegression[B tensor.Backend](config SyntheticRegressionConfig, backend B) (*SyntheticRegression[B], error) {
	if len(config.W) == 0 {
		return nil, fmt.Errorf("data: SyntheticRegression needs at least one true weight")
	}
	if config.NumTrain == 0 {
		config.NumTrain = 1000
	}
	if config.NumVal == 0 {
		config.NumVal = 1000
	}
	if config.BatchSize == 0 {
		config.BatchSize = 32
	}
	if config.Noise == 0 {
		config.Noise = 0.01
	}
	if config.Noise < 0 {
		return nil, fmt.Errorf("data: noise must not be negative, got %v", config.Noise)
	}

	rng := rand.New(rand.NewSource(config.Seed))
	rows := config.NumTrain + config.NumVal
	width := len(config.W)

	features := make([]float32, rows*width)
	labels := make([]float32, rows)
	for i := 0; i < rows; i++ {
		var y float64
		for j, w := range config.W {
			x := rng.NormFloat64()
			features[i*width+j] = float32(x)
			y += x * float64(w)
		}
		y += float64(config.Bias) + config.Noise*rng.NormFloat64()
		labels[i] = float32(y)
	}

	arrays, err := NewArrays(ArraysConfig{
		Features:    features,
		Labels:      labels,
		NumFeatures: width,
		NumLabels:   1,
		NumTrain:    config.NumTrain,
		NumVal:      config.NumVal,
		BatchSize:   config.BatchSize,
		Seed:        config.Seed,
	}, backend)
	if err != nil {
		return nil, err
	}

	return &SyntheticRegression[B]{
		Arrays: arrays,
		w:      config.W,
		bias:   config.Bias,
	}, nil
}

// W returns the generating weights.
func (s *SyntheticRegression[B]) W() []float32 {
	return s.w
}

// Bias returns the generating bias.
func (s *SyntheticRegression[B]) Bias() float32 {
	return s.bias
}
