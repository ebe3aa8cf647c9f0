package tokenizer

// Tokenizer converts between text and token IDs.
//
// The data pipeline uses it to turn a raw corpus into integer token
// sequences for language-model datasets.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int
}
