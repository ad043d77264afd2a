package index

import "sort"

// PostingSet is the set of document IDs that contain a term. Order is not
// meaningful; use Sorted for stable output.
//
// Set operations allocate a fresh set and never modify their operands, so
// sets handed out by an InvertedIndex stay read-only.
type PostingSet map[string]struct{}

// NewPostingSet returns a set holding the given document IDs.
func NewPostingSet(docIDs ...string) PostingSet {
	s := make(PostingSet, len(docIDs))
	for _, id := range docIDs {
		s[id] = struct{}{}
	}
	return s
}

func (s PostingSet) Contains(docID string) bool {
	_, ok := s[docID]
	return ok
}

func (s PostingSet) Len() int {
	return len(s)
}

// Sorted returns the document IDs in lexical order.
func (s PostingSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s PostingSet) Clone() PostingSet {
	out := make(PostingSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Intersect returns the IDs present in both s and other.
func (s PostingSet) Intersect(other PostingSet) PostingSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(PostingSet, len(small))
	for id := range small {
		if _, ok := large[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Union returns the IDs present in either s or other.
func (s PostingSet) Union(other PostingSet) PostingSet {
	out := make(PostingSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Difference returns the IDs in s that are not in other.
func (s PostingSet) Difference(other PostingSet) PostingSet {
	out := make(PostingSet, len(s))
	for id := range s {
		if _, ok := other[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same IDs.
func (s PostingSet) Equal(other PostingSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// TermEntry is one row of an index dump: a term and its sorted postings.
type TermEntry struct {
	Term   string   `json:"term" yaml:"term"`
	DocIDs []string `json:"doc_ids" yaml:"doc_ids"`
}
