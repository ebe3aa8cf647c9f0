// Package tokenizer provides text tokenization for Kiln ML data pipelines.
//
// This package wraps the internal tokenizer implementation and provides
// a clean public API for turning raw text corpora into integer token
// sequences for language-model datasets.
//
// Supported tokenizers:
//   - TikToken: OpenAI BPE tokenizers (cl100k_base, p50k_base, r50k_base)
//
// Example usage:
//
//	import "github.com/kiln-ml/kiln/tokenizer"
//
//	// Load tiktoken
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode tokens
//	text, err := tok.Decode(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/kiln-ml/kiln/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// DefaultEncoding is the encoding used when the caller does not name one.
const DefaultEncoding = tokenizer.DefaultEncoding

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikToken(encodingName string) (Tokenizer, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (Tokenizer, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}
