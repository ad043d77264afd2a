// Package executor evaluates parsed Boolean queries against an inverted
// index using set algebra over posting sets. Evaluation is pure: it reads
// the index, allocates a new result set and has no other effect.
package executor

import (
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/parser"
)

// Result is the outcome of one query, ready to be rendered by a caller.
type Result struct {
	Query     string          `json:"query"`
	Operator  parser.Operator `json:"operator"`
	TotalHits int             `json:"total_hits"`
	DocIDs    []string        `json:"doc_ids"`
}

// Search parses query and evaluates it against idx.
func Search(idx *index.InvertedIndex, query string) index.PostingSet {
	return Evaluate(idx, parser.Parse(query))
}

// Execute is Search with the result packaged for output, doc IDs sorted.
func Execute(idx *index.InvertedIndex, query string) Result {
	plan := parser.Parse(query)
	docs := Evaluate(idx, plan)
	return Result{
		Query:     query,
		Operator:  plan.Operator,
		TotalHits: docs.Len(),
		DocIDs:    docs.Sorted(),
	}
}

// Evaluate computes the document set selected by plan. Unknown operands
// contribute an empty posting set. A NOT plan that does not have exactly
// two operands selects every document in the index.
func Evaluate(idx *index.InvertedIndex, plan *parser.QueryPlan) index.PostingSet {
	switch plan.Operator {
	case parser.OpAND:
		return intersectAll(idx, plan.Operands)
	case parser.OpOR, parser.OpImplicitOR:
		return unionAll(idx, plan.Operands)
	case parser.OpNOT:
		if len(plan.Operands) != 2 {
			return idx.DocIDs()
		}
		return idx.Lookup(plan.Operands[0]).Difference(idx.Lookup(plan.Operands[1]))
	default:
		return index.PostingSet{}
	}
}

func intersectAll(idx *index.InvertedIndex, keys []string) index.PostingSet {
	if len(keys) == 0 {
		return index.PostingSet{}
	}
	result := idx.Lookup(keys[0]).Clone()
	for _, key := range keys[1:] {
		if result.Len() == 0 {
			break
		}
		result = result.Intersect(idx.Lookup(key))
	}
	return result
}

func unionAll(idx *index.InvertedIndex, keys []string) index.PostingSet {
	result := index.PostingSet{}
	for _, key := range keys {
		result = result.Union(idx.Lookup(key))
	}
	return result
}
