// Package index builds the in-memory inverted index that maps each term to
// the set of documents containing it. An InvertedIndex is immutable once
// built; a changed corpus requires a full rebuild.
package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
)

// InvertedIndex maps terms to posting sets. It keeps no reference to the
// document text it was built from. All methods are safe for concurrent use
// because nothing mutates the index after Build returns.
type InvertedIndex struct {
	postings map[string]PostingSet
	docs     PostingSet
}

// Build tokenizes every document of corpus and records the document's ID in
// the posting set of each term it contains. Terms that occur nowhere have no
// entry. An empty corpus yields an empty index.
func Build(corpus map[string]string) *InvertedIndex {
	idx := &InvertedIndex{
		postings: make(map[string]PostingSet),
		docs:     make(PostingSet),
	}
	for docID, text := range corpus {
		for term := range tokenizer.Tokenize(text) {
			p, ok := idx.postings[term]
			if !ok {
				p = make(PostingSet)
				idx.postings[term] = p
			}
			p[docID] = struct{}{}
			idx.docs[docID] = struct{}{}
		}
	}
	return idx
}

// Lookup returns the posting set stored under key, or an empty set when the
// key is not a term of the index. Keys are matched verbatim; callers that
// want normalisation must tokenize first. The returned set must not be
// modified.
func (ix *InvertedIndex) Lookup(key string) PostingSet {
	if p, ok := ix.postings[key]; ok {
		return p
	}
	return PostingSet{}
}

// DocIDs returns a copy of the set of every document ID that appears in at
// least one posting set. Documents without any token are not part of it.
func (ix *InvertedIndex) DocIDs() PostingSet {
	return ix.docs.Clone()
}

// Terms returns all indexed terms in lexical order.
func (ix *InvertedIndex) Terms() []string {
	terms := make([]string, 0, len(ix.postings))
	for term := range ix.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

func (ix *InvertedIndex) NumTerms() int {
	return len(ix.postings)
}

func (ix *InvertedIndex) NumDocs() int {
	return len(ix.docs)
}

// Snapshot returns every term with its sorted postings, ordered by term.
func (ix *InvertedIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(ix.postings))
	for _, term := range ix.Terms() {
		entries = append(entries, TermEntry{
			Term:   term,
			DocIDs: ix.postings[term].Sorted(),
		})
	}
	return entries
}
