package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadEncoding skips the test when the BPE tables cannot be fetched,
// so offline runs pass without hitting the network. An unknown
// encoding name still fails fast inside tiktoken-go before any fetch,
// which the invalid-input cases below rely on.
func loadEncoding(t *testing.T, name string) *TikToken {
	t.Helper()
	tok, err := NewTikToken(name)
	if err != nil {
		t.Skipf("tiktoken encoding %s unavailable: %v", name, err)
	}
	return tok
}

func TestTikToken_NewTikToken(t *testing.T) {
	tests := []struct {
		name              string
		encoding          string
		expectedVocabSize int
	}{
		{
			name:              "cl100k_base",
			encoding:          "cl100k_base",
			expectedVocabSize: 100256,
		},
		{
			name:              "p50k_base",
			encoding:          "p50k_base",
			expectedVocabSize: 50257,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := loadEncoding(t, tt.encoding)
			assert.Equal(t, tt.expectedVocabSize, tok.VocabSize())
			assert.Equal(t, tt.encoding, tok.Name())
		})
	}
}

func TestTikToken_InvalidEncoding(t *testing.T) {
	tok, err := NewTikToken("invalid_encoding_xyz")
	assert.Error(t, err)
	assert.Nil(t, tok)
}

func TestTikToken_Roundtrip(t *testing.T) {
	tok := loadEncoding(t, "cl100k_base")

	tests := []struct {
		name string
		text string
	}{
		{
			name: "simple text",
			text: "Hello, world!",
		},
		{
			name: "with newlines",
			text: "Hello\nWorld\n",
		},
		{
			name: "unicode",
			text: "Hello 世界! 🌍",
		},
		{
			name: "empty string",
			text: "",
		},
		{
			name: "long text",
			text: "The quick brown fox jumps over the lazy dog. " +
				"This is a longer piece of text to test tokenization.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := tok.Encode(tt.text)
			require.NoError(t, err)

			decoded, err := tok.Decode(tokens)
			require.NoError(t, err)

			assert.Equal(t, tt.text, decoded)
		})
	}
}

func TestTikToken_NewTikTokenForModel(t *testing.T) {
	for _, model := range []string{"gpt-4", "gpt-3.5-turbo"} {
		t.Run(model, func(t *testing.T) {
			tok, err := NewTikTokenForModel(model)
			if err != nil {
				t.Skipf("tiktoken data for %s unavailable: %v", model, err)
			}
			require.NotNil(t, tok)
			assert.Equal(t, model, tok.Name())
		})
	}

	t.Run("invalid model", func(t *testing.T) {
		tok, err := NewTikTokenForModel("invalid-model-xyz")
		assert.Error(t, err)
		assert.Nil(t, tok)
	})
}

func TestTikToken_EmptyInput(t *testing.T) {
	tok := loadEncoding(t, "cl100k_base")

	tokens, err := tok.Encode("")
	require.NoError(t, err)
	assert.Empty(t, tokens)

	decoded, err := tok.Decode([]int32{})
	require.NoError(t, err)
	assert.Equal(t, "", decoded)
}

func TestTikToken_VocabSize(t *testing.T) {
	tests := []struct {
		encoding          string
		expectedVocabSize int
	}{
		{"cl100k_base", 100256},
		{"p50k_base", 50257},
		{"r50k_base", 50257},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			tok := loadEncoding(t, tt.encoding)
			assert.Equal(t, tt.expectedVocabSize, tok.VocabSize())
		})
	}
}
