package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	encodingCL100kBase = "cl100k_base" // GPT-4, GPT-3.5-turbo
	encodingP50kBase   = "p50k_base"   // GPT-3, Codex
	encodingR50kBase   = "r50k_base"   // older GPT-3 models
)

// DefaultEncoding is the encoding used when the caller does not name one.
const DefaultEncoding = encodingCL100kBase

// vocabSizes maps encoding names to their vocabulary sizes, which
// tiktoken-go does not expose. The values bound the id range Encode can
// produce, so TextSequences can size an Embedding from them.
var vocabSizes = map[string]int{
	encodingCL100kBase: 100256,
	encodingP50kBase:   50257,
	encodingR50kBase:   50257,
}

// TikToken adapts a pkoukk/tiktoken-go BPE encoding to the Tokenizer
// interface. The BPE tables are fetched and cached by the library on
// first use.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken loads the named encoding ("cl100k_base", "p50k_base",
// "r50k_base").
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName}, nil
}

// NewTikTokenForModel loads the encoding a model was trained with, e.g.
// "gpt-4" or "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}
	return &TikToken{encoding: encoding, name: modelName}, nil
}

// Encode converts text to token ids.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = int32(tok) // ids stay far below 2^31 for every encoding
	}
	return ids, nil
}

// Decode converts token ids back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = int(tok)
	}
	return t.encoding.Decode(ids), nil
}

// VocabSize returns the vocabulary size of the encoding.
func (t *TikToken) VocabSize() int {
	if n, ok := vocabSizes[t.name]; ok {
		return n
	}
	// Model-named tokenizers and unknown encodings: large enough for
	// every encoding tiktoken-go ships.
	return 100256
}

// Name returns the encoding or model name the tokenizer was built from.
func (t *TikToken) Name() string {
	return t.name
}
