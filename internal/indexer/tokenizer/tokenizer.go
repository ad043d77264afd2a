// Package tokenizer provides text tokenisation for the Boolean index.
// It lower-cases input and splits it on every rune that is not a word
// character (letter, digit or underscore). Nothing is stemmed or dropped:
// operator keywords such as "and" are ordinary terms at this level.
package tokenizer

import (
	"sort"
	"strings"
	"unicode"
)

// TermSet is a deduplicated set of normalised terms.
type TermSet map[string]struct{}

// Contains reports whether term is in the set.
func (s TermSet) Contains(term string) bool {
	_, ok := s[term]
	return ok
}

// Len returns the number of distinct terms.
func (s TermSet) Len() int {
	return len(s)
}

// Sorted returns the terms in lexical order.
func (s TermSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for term := range s {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Tokenize breaks text into the set of lower-cased word tokens it contains.
// Frequency is discarded; empty input yields an empty, non-nil set.
func Tokenize(text string) TermSet {
	words := split(text)
	set := make(TermSet, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

// Terms returns the distinct tokens of text in first-occurrence order.
func Terms(text string) []string {
	words := split(text)
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, word := range words {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}

func split(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
