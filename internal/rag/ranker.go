package rag

import (
	"regexp"
	"sort"
	"strings"
)

// minTokenLen is the shortest token that takes part in scoring.
const minTokenLen = 3

var nonWordPattern = regexp.MustCompile(`\W+`)

// Tokenize returns the distinct lower-cased query tokens of a question, in
// first-seen order. Tokens shorter than three bytes are dropped.
func Tokenize(question string) []string {
	q := strings.ToLower(Normalize(question))
	if q == "" {
		return nil
	}

	seen := make(map[string]struct{})
	tokens := make([]string, 0)
	for _, w := range nonWordPattern.Split(q, -1) {
		if len(w) < minTokenLen {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}
	return tokens
}

// Score counts how many of tokens occur as substrings of text. Tokens are
// expected to be lower-cased and distinct.
func Score(text string, tokens []string) int {
	if len(tokens) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	s := 0
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			s++
		}
	}
	return s
}

// Rank scores every document against question and orders them by score,
// highest first. Equal scores keep insertion order. The input slice is not
// modified.
func Rank(docs []Document, question string) []ScoredDocument {
	tokens := Tokenize(question)

	ranked := make([]ScoredDocument, len(docs))
	for i, d := range docs {
		ranked[i] = ScoredDocument{Document: d, Score: Score(d.Text, tokens)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
