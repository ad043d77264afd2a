// Package parser turns a raw query string into a QueryPlan: the single
// operator that governs the query and the operand strings it applies to.
//
// Exactly one operator is honoured per query. When several keywords are
// present the first match in the order AND, OR, NOT wins and the others are
// left inside the operand text. Operands of AND, OR and NOT are the trimmed
// substrings between the operator delimiters and are looked up verbatim, so
// a multi-word operand such as "boolean retrieval" is a single index key and
// matches nothing. This coarse behaviour is deliberate and covered by tests.
package parser

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
)

// Operator identifies how a query's operands are combined.
type Operator int

const (
	// OpImplicitOR unions the postings of every query token.
	OpImplicitOR Operator = iota
	// OpAND intersects the postings of the operands.
	OpAND
	// OpOR unions the postings of the operands.
	OpOR
	// OpNOT subtracts the second operand's postings from the first's.
	OpNOT
)

func (o Operator) String() string {
	switch o {
	case OpAND:
		return "AND"
	case OpOR:
		return "OR"
	case OpNOT:
		return "NOT"
	default:
		return "IMPLICIT_OR"
	}
}

// MarshalText lets an Operator render as its name in JSON and YAML.
func (o Operator) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (o *Operator) UnmarshalText(text []byte) error {
	switch string(text) {
	case "AND":
		*o = OpAND
	case "OR":
		*o = OpOR
	case "NOT":
		*o = OpNOT
	case "IMPLICIT_OR":
		*o = OpImplicitOR
	default:
		return fmt.Errorf("unknown operator %q", text)
	}
	return nil
}

const (
	keywordAND = "and"
	keywordOR  = "or"
	keywordNOT = "not"
)

var delimiters = map[Operator]string{
	OpAND: " " + keywordAND + " ",
	OpOR:  " " + keywordOR + " ",
	OpNOT: " " + keywordNOT + " ",
}

// QueryPlan is the parsed form of one query.
type QueryPlan struct {
	Operator Operator
	// Operands are the index keys to look up. For AND, OR and NOT they are
	// the trimmed parts of the split query, in order and possibly empty or
	// multi-word. For implicit OR they are the query's distinct tokens.
	Operands []string
	RawQuery string
}

// Classify picks the operator for a query from its token set. Keywords only
// count as standalone tokens, never as substrings of other words.
func Classify(tokens tokenizer.TermSet) Operator {
	switch {
	case tokens.Contains(keywordAND):
		return OpAND
	case tokens.Contains(keywordOR):
		return OpOR
	case tokens.Contains(keywordNOT):
		return OpNOT
	default:
		return OpImplicitOR
	}
}

// Parse lower-cases query, classifies it and extracts its operands. It
// never fails: any string yields a plan.
func Parse(query string) *QueryPlan {
	lowered := strings.ToLower(query)
	op := Classify(tokenizer.Tokenize(lowered))
	plan := &QueryPlan{
		Operator: op,
		RawQuery: query,
	}
	if op == OpImplicitOR {
		plan.Operands = tokenizer.Terms(lowered)
		return plan
	}
	parts := strings.Split(lowered, delimiters[op])
	plan.Operands = make([]string, 0, len(parts))
	for _, part := range parts {
		plan.Operands = append(plan.Operands, strings.TrimSpace(part))
	}
	return plan
}

// SplitBatch splits comma-separated queries, trimming each and dropping the
// empty ones. Commas cannot occur inside a query.
func SplitBatch(input string) []string {
	parts := strings.Split(input, ",")
	queries := make([]string, 0, len(parts))
	for _, p := range parts {
		if q := strings.TrimSpace(p); q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}
