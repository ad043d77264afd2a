// Package corpus supplies the documents the index is built from. A Corpus
// is a plain mapping of document ID to raw text; Sources produce one from a
// directory of text files, a fixed in-memory set or PostgreSQL. Validation
// rules that the index itself does not impose, such as a minimum number of
// documents, live here.
package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

// DefaultMinDocuments is the smallest corpus accepted for indexing unless
// configured otherwise.
const DefaultMinDocuments = 2

// Corpus maps document IDs to their raw text.
type Corpus map[string]string

// Document is a single entry of a corpus.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Source loads a complete corpus snapshot.
type Source interface {
	Load(ctx context.Context) (Corpus, error)
}

// ContentHash returns the hex SHA-256 of a document text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// IDs returns the document IDs in lexical order.
func (c Corpus) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Documents returns the corpus as a slice ordered by ID.
func (c Corpus) Documents() []Document {
	docs := make([]Document, 0, len(c))
	for _, id := range c.IDs() {
		docs = append(docs, Document{ID: id, Text: c[id]})
	}
	return docs
}

// Clone returns a shallow copy that can be modified independently.
func (c Corpus) Clone() Corpus {
	out := make(Corpus, len(c))
	for id, text := range c {
		out[id] = text
	}
	return out
}

// Validate checks that c holds at least minDocs documents.
func Validate(c Corpus, minDocs int) error {
	if len(c) < minDocs {
		return apperrors.Newf(apperrors.ErrNotEnoughDocuments, 400,
			"corpus has %d document(s), at least %d required", len(c), minDocs)
	}
	return nil
}

// StaticSource serves a fixed corpus.
type StaticSource struct {
	corpus Corpus
}

// NewStaticSource copies c into a Source.
func NewStaticSource(c Corpus) *StaticSource {
	return &StaticSource{corpus: c.Clone()}
}

func (s *StaticSource) Load(ctx context.Context) (Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading static corpus: %w", err)
	}
	return s.corpus.Clone(), nil
}

// Sample returns the demonstration corpus used when no documents are
// supplied.
func Sample() Corpus {
	return Corpus{
		"doc1": "Information retrieval systems use Boolean queries to find documents and data.",
		"doc2": "Boolean retrieval is fundamental to search engines.",
		"doc3": "Modern search engines use advanced algorithms beyond simple Boolean queries.",
		"doc4": "Data mining techniques are used for more complex search tasks.",
		"doc5": "Data mining is a subset of data science.",
		"doc6": "Data mining is used to discover patterns in large datasets.",
		"doc7": "Data mining is an interdisciplinary field.",
	}
}
