package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(texts ...string) []Document {
	out := make([]Document, len(texts))
	for i, t := range texts {
		out[i] = Document{ID: t, Text: t, Source: "manual"}
	}
	return out
}

func texts(scored []ScoredDocument) []string {
	out := make([]string, len(scored))
	for i, sd := range scored {
		out[i] = sd.Document.Text
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		question string
		expected []string
	}{
		{
			name:     "drops short words",
			question: "what do cats eat",
			expected: []string{"what", "cats", "eat"},
		},
		{
			name:     "lower-cases and splits on punctuation",
			question: "Opening-Hours? On SUNDAY!",
			expected: []string{"opening", "hours", "sunday"},
		},
		{
			name:     "dedupes repeated tokens",
			question: "cats cats CATS dogs",
			expected: []string{"cats", "dogs"},
		},
		{
			name:     "strips markup before splitting",
			question: "<b>price</b> list",
			expected: []string{"price", "list"},
		},
		{
			name:     "keeps underscores and digits",
			question: "sku_42 costs 100",
			expected: []string{"sku_42", "costs", "100"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.question))
		})
	}

	t.Run("no usable tokens", func(t *testing.T) {
		assert.Empty(t, Tokenize("a to is"))
		assert.Empty(t, Tokenize(""))
	})
}

func TestScore(t *testing.T) {
	tokens := []string{"what", "cats", "eat"}

	assert.Equal(t, 1, Score("cats are mammals", tokens))
	assert.Equal(t, 0, Score("dogs bark loudly", tokens))
	// substring match: "eat" occurs inside "great" and "cats" inside "Cats"
	assert.Equal(t, 2, Score("Cats are great", tokens))
	// repeated occurrences count once
	assert.Equal(t, 1, Score("cats cats cats", tokens))
	assert.Equal(t, 0, Score("anything", nil))
}

func TestRank(t *testing.T) {
	t.Run("orders by score descending", func(t *testing.T) {
		ranked := Rank(docs("dogs bark loudly", "cats are mammals", "cats eat fish"), "what do cats eat")

		require.Len(t, ranked, 3)
		assert.Equal(t, []string{"cats eat fish", "cats are mammals", "dogs bark loudly"}, texts(ranked))
		assert.Equal(t, []int{2, 1, 0}, []int{ranked[0].Score, ranked[1].Score, ranked[2].Score})
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		ranked := Rank(docs("one cat", "two cats", "red dog", "three cats"), "cat")

		assert.Equal(t, []string{"one cat", "two cats", "three cats", "red dog"}, texts(ranked))
	})

	t.Run("no usable tokens keeps original order", func(t *testing.T) {
		input := docs("b", "a", "c")
		ranked := Rank(input, "is it ok")

		assert.Equal(t, []string{"b", "a", "c"}, texts(ranked))
		for _, sd := range ranked {
			assert.Zero(t, sd.Score)
		}
	})

	t.Run("does not reorder the input", func(t *testing.T) {
		input := docs("dogs", "cats")
		_ = Rank(input, "cats")

		assert.Equal(t, "dogs", input[0].Text)
		assert.Equal(t, "cats", input[1].Text)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		input := docs("alpha beta", "beta gamma", "gamma alpha", "delta")
		first := texts(Rank(input, "alpha gamma"))
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, texts(Rank(input, "alpha gamma")))
		}
	})

	t.Run("empty document set", func(t *testing.T) {
		assert.Empty(t, Rank(nil, "anything here"))
	})
}
