// Package tokenizer provides text tokenization for language-model
// datasets.
//
// The single implementation wraps tiktoken (the BPE tokenizer used by
// GPT-3/GPT-4, encodings cl100k_base and p50k_base). The data package
// uses it to encode a corpus into token-id sequences.
//
// Example usage:
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := tok.Encode("Hello, world!")
package tokenizer
