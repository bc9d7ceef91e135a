package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Select walks ranked in order and keeps a greedy prefix whose combined
// text length stays within maxChars. The walk stops at the first zero-score
// document once something has been picked, and at the first document that
// would overflow the budget. When nothing fits, the top-ranked document is
// returned on its own so the answer step always has some context.
func Select(ranked []ScoredDocument, maxChars int) []Document {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	picked := make([]Document, 0)
	total := 0
	for _, sd := range ranked {
		if sd.Score == 0 && len(picked) > 0 {
			break
		}
		n := utf8.RuneCountInString(sd.Document.Text)
		if total+n > maxChars {
			break
		}
		picked = append(picked, sd.Document)
		total += n
	}

	if len(picked) == 0 && len(ranked) > 0 {
		picked = append(picked, ranked[0].Document)
	}
	return picked
}

// FormatContext renders docs as numbered source blocks separated by a
// blank line. An empty list renders as NoDataContext.
func FormatContext(docs []Document) string {
	if len(docs) == 0 {
		return NoDataContext
	}

	blocks := make([]string, len(docs))
	for i, d := range docs {
		label := fmt.Sprintf("### Source %d", i+1)
		if d.Source != "" {
			label += fmt.Sprintf(" (%s)", d.Source)
		}
		blocks[i] = label + "\n" + d.Text
	}
	return strings.Join(blocks, "\n\n")
}
