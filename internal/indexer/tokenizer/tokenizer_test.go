package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "lower-cases and splits on whitespace",
			input:  "Boolean Retrieval",
			expect: []string{"boolean", "retrieval"},
		},
		{
			name:   "punctuation is a separator",
			input:  "search-engines, data.mining; (queries)!",
			expect: []string{"data", "engines", "mining", "queries", "search"},
		},
		{
			name:   "underscore and digits are word characters",
			input:  "snake_case v2 2024",
			expect: []string{"2024", "snake_case", "v2"},
		},
		{
			name:   "duplicates collapse regardless of case",
			input:  "Data data DATA mining",
			expect: []string{"data", "mining"},
		},
		{
			name:   "operator keywords are ordinary tokens",
			input:  "this AND that or NOT",
			expect: []string{"and", "not", "or", "that", "this"},
		},
		{
			name:   "non-ascii letters stay inside the token",
			input:  "Café naïve",
			expect: []string{"café", "naïve"},
		},
		{
			name:   "every numeric category is a word character",
			input:  "x² ½ Ⅳ",
			expect: []string{"x²", "½", "ⅳ"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Tokenize(tt.input).Sorted())
		})
	}
}

func TestTokenize_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "!!! ... ,,,"} {
		set := Tokenize(input)
		require.NotNil(t, set)
		assert.Zero(t, set.Len(), "input %q", input)
	}
}

func TestTokenize_DoesNotSplitInsideWords(t *testing.T) {
	set := Tokenize("android operand notation")

	assert.False(t, set.Contains("and"))
	assert.False(t, set.Contains("or"))
	assert.False(t, set.Contains("not"))
	assert.True(t, set.Contains("android"))
}

func TestTerms_FirstOccurrenceOrder(t *testing.T) {
	got := Terms("Search engines search DATA engines data")
	assert.Equal(t, []string{"search", "engines", "data"}, got)
}

func TestTerms_MatchesTokenize(t *testing.T) {
	text := "Information retrieval systems use Boolean queries to find documents and data."
	terms := Terms(text)
	set := Tokenize(text)

	require.Len(t, terms, set.Len())
	for _, term := range terms {
		assert.True(t, set.Contains(term), term)
	}
}

func BenchmarkTokenize(b *testing.B) {
	text := strings.Repeat("Modern search engines use advanced algorithms beyond simple Boolean queries. ", 50)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = Tokenize(text)
	}
}
