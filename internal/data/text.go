package data

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/tokenizer"
)

// TextSequences turns a text corpus into a next-token prediction
// dataset: the tokenized corpus is cut into sliding windows of SeqLen
// consecutive token ids (the features) each paired with the id that
// follows the window (the label). Ids ride as float32 like every other
// batch and are cast back at the embedding and loss boundaries.
type TextSequences[B tensor.Backend] struct {
	*Arrays[B]
	tok    tokenizer.Tokenizer
	seqLen int
}

// TextSequencesConfig describes the corpus and windowing.
type TextSequencesConfig struct {
	Text string
	// Tokenizer encodes the corpus. Nil selects tiktoken with the
	// configured Encoding (default cl100k_base).
	Tokenizer tokenizer.Tokenizer
	Encoding  string
	SeqLen    int // window length, default 8
	BatchSize int // default 32
	NumVal    int // trailing windows reserved for validation
	Seed      int64
}

// NewTextSequences tokenizes the corpus and builds the windows.
func NewTextSequences[B tensor.Backend](config TextSequencesConfig, backend B) (*TextSequences[B], error) {
	if config.SeqLen == 0 {
		config.SeqLen = 8
	}
	if config.SeqLen < 1 {
		return nil, fmt.Errorf("data: SeqLen must be at least 1, got %d", config.SeqLen)
	}
	if config.BatchSize == 0 {
		config.BatchSize = 32
	}

	tok := config.Tokenizer
	if tok == nil {
		encoding := config.Encoding
		if encoding == "" {
			encoding = tokenizer.DefaultEncoding
		}
		var err error
		tok, err = tokenizer.NewTikToken(encoding)
		if err != nil {
			return nil, err
		}
	}

	ids, err := tok.Encode(config.Text)
	if err != nil {
		return nil, fmt.Errorf("data: encoding corpus: %w", err)
	}

	numWindows := len(ids) - config.SeqLen
	if numWindows < 1 {
		return nil, fmt.Errorf("data: corpus has %d tokens, need more than SeqLen=%d", len(ids), config.SeqLen)
	}
	if config.NumVal < 0 || config.NumVal > numWindows {
		return nil, fmt.Errorf("data: NumVal=%d outside [0, %d]", config.NumVal, numWindows)
	}

	features := make([]float32, numWindows*config.SeqLen)
	labels := make([]float32, numWindows)
	for w := 0; w < numWindows; w++ {
		for j := 0; j < config.SeqLen; j++ {
			features[w*config.SeqLen+j] = float32(ids[w+j])
		}
		labels[w] = float32(ids[w+config.SeqLen])
	}

	arrays, err := NewArrays(ArraysConfig{
		Features:    features,
		Labels:      labels,
		NumFeatures: config.SeqLen,
		NumLabels:   1,
		NumTrain:    numWindows - config.NumVal,
		NumVal:      config.NumVal,
		BatchSize:   config.BatchSize,
		Seed:        config.Seed,
	}, backend)
	if err != nil {
		return nil, err
	}

	return &TextSequences[B]{Arrays: arrays, tok: tok, seqLen: config.SeqLen}, nil
}

// VocabSize returns the tokenizer's vocabulary size, the width of a
// language model's output layer.
func (t *TextSequences[B]) VocabSize() int {
	return t.tok.VocabSize()
}

// SeqLen returns the window length.
func (t *TextSequences[B]) SeqLen() int {
	return t.seqLen
}

// Tokenizer returns the tokenizer used to encode the corpus.
func (t *TextSequences[B]) Tokenizer() tokenizer.Tokenizer {
	return t.tok
}
