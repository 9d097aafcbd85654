// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topic

import (
	"strings"
	"unicode"

	"github.com/pdiddy/content-engine/pkg/types"
)

// stopwords are tokens too common to signal topical overlap.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "for": true, "how": true,
	"in": true, "of": true, "on": true, "the": true, "to": true,
	"with": true, "your": true,
}

// noveltyViolations returns the keywords whose core terms overlap a
// published backlog title. A keyword violates when it shares at least two
// core tokens with one title; single shared tokens ("paint") are too weak
// a signal to reject on.
func noveltyViolations(keywords []string, backlog []types.BacklogSummary) []string {
	titleTokens := make([]map[string]bool, 0, len(backlog))
	for _, item := range backlog {
		if tokens := coreTokens(item.Title); len(tokens) > 0 {
			titleTokens = append(titleTokens, tokens)
		}
	}

	var violations []string
	for _, kw := range keywords {
		kwTokens := coreTokens(kw)
		for _, title := range titleTokens {
			shared := 0
			for token := range kwTokens {
				if title[token] {
					shared++
				}
			}
			if shared >= 2 {
				violations = append(violations, kw)
				break
			}
		}
	}
	return violations
}

// coreTokens normalizes text into its set of topical tokens: lowercase,
// punctuation stripped, stopwords and bare numbers dropped.
func coreTokens(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if stopwords[field] || isNumeric(field) || len(field) < 3 {
			continue
		}
		tokens[field] = true
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
