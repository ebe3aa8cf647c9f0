package nn

import (
	"fmt"
	"math/rand"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Embedding is a lookup table mapping discrete indices to dense
// vectors. The table is a trainable [numEmbeddings, embedDim] parameter
// initialized from N(0, 1); gradients scatter-add back into the looked
// up rows.
type Embedding[B tensor.Backend] struct {
	weight   *Parameter[B]
	numEmbed int
	embedDim int
}

// NewEmbedding creates an Embedding layer with weights drawn from rng.
func NewEmbedding[B tensor.Backend](numEmbeddings, embedDim int, rng *rand.Rand, backend B) *Embedding[B] {
	if numEmbeddings <= 0 || embedDim <= 0 {
		panic(fmt.Sprintf("NewEmbedding: invalid table size %d x %d", numEmbeddings, embedDim))
	}
	weight := Randn(tensor.Shape{numEmbeddings, embedDim}, rng, backend)
	return &Embedding[B]{
		weight:   NewParameter("weight", weight),
		numEmbed: numEmbeddings,
		embedDim: embedDim,
	}
}

// Forward looks up the embedding vector for every index. Float inputs
// are the norm in this framework's data pipeline (batches carry
// float32 end to end), so indices are cast at this boundary.
//
// Input [batch, seq] yields [batch, seq, embedDim].
func (e *Embedding[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	indices := tensor.Cast[int32](input)
	return e.weight.Tensor().Embedding(indices)
}

// Lookup embeds integer indices directly, skipping the float cast.
func (e *Embedding[B]) Lookup(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.weight.Tensor().Embedding(indices)
}

// Parameters returns the embedding table.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.weight}
}

// Weight returns the table parameter.
func (e *Embedding[B]) Weight() *Parameter[B] {
	return e.weight
}

// NumEmbeddings returns the table's row count (vocabulary size).
func (e *Embedding[B]) NumEmbeddings() int {
	return e.numEmbed
}

// EmbedDim returns the embedding vector size.
func (e *Embedding[B]) EmbedDim() int {
	return e.embedDim
}
