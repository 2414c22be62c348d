// Package tokenizer provides text tokenisation for indexing and querying.
// It lower-cases input, splits on anything that is not an ASCII letter or
// digit, and optionally stems each token with the Snowball English stemmer.
//
// The same stem setting must be used when building an index and when
// tokenizing queries against it.
package tokenizer

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

// Tokenize breaks text into lower-cased tokens. Every maximal run of
// [a-z0-9] is one token; when stem is true each token is stemmed.
func Tokenize(text string, stem bool) []string {
	text = strings.ToLower(text)
	tokens := make([]string, 0, len(text)/6)
	start := -1
	for i := 0; i < len(text); i++ {
		if isConstituent(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, emit(text[start:i], stem))
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, emit(text[start:], stem))
	}
	return tokens
}

// Stem applies the stemmer used by Tokenize to a single token.
func Stem(token string) string {
	// Stop words pass through unstemmed and are never dropped, so
	// document lengths do not depend on the stem setting.
	return english.Stem(token, false)
}

func emit(token string, stem bool) string {
	if stem {
		return Stem(token)
	}
	return token
}

// isConstituent operates on bytes: multi-byte UTF-8 sequences never fall in
// the ASCII ranges, so they act as delimiters.
func isConstituent(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
