package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query  string
		expect Operator
	}{
		{"boolean and retrieval", OpAND},
		{"Boolean AND retrieval", OpAND},
		{"boolean or algorithms", OpOR},
		{"data not mining", OpNOT},
		{"search engines", OpImplicitOR},
		{"", OpImplicitOR},
		// precedence: AND beats OR beats NOT
		{"a or b and c", OpAND},
		{"a not b or c", OpOR},
		{"a not b and c or d", OpAND},
		// keywords inside other words do not count
		{"android operand notation", OpImplicitOR},
		{"brand ore knot", OpImplicitOR},
		// keyword next to punctuation is still a standalone token
		{"boolean,and,retrieval", OpAND},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.expect, Classify(tokenizer.Tokenize(tt.query)))
		})
	}
}

func TestParse_Operands(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		op       Operator
		operands []string
	}{
		{
			name:     "and splits on delimiter and trims",
			query:    "  Boolean AND retrieval ",
			op:       OpAND,
			operands: []string{"boolean", "retrieval"},
		},
		{
			name:     "and chains",
			query:    "a and b and c",
			op:       OpAND,
			operands: []string{"a", "b", "c"},
		},
		{
			name:     "or",
			query:    "boolean or algorithms",
			op:       OpOR,
			operands: []string{"boolean", "algorithms"},
		},
		{
			name:     "not with two operands",
			query:    "data not mining",
			op:       OpNOT,
			operands: []string{"data", "mining"},
		},
		{
			name:     "not with three operands is kept as is",
			query:    "a not b not c",
			op:       OpNOT,
			operands: []string{"a", "b", "c"},
		},
		{
			name:     "multi-word operands are not re-tokenized",
			query:    "boolean retrieval and search engines",
			op:       OpAND,
			operands: []string{"boolean retrieval", "search engines"},
		},
		{
			name:     "lower-priority keyword stays inside operand",
			query:    "a or b and c",
			op:       OpAND,
			operands: []string{"a or b", "c"},
		},
		{
			name:     "keyword without surrounding spaces does not split",
			query:    "boolean,and,retrieval",
			op:       OpAND,
			operands: []string{"boolean,and,retrieval"},
		},
		{
			name:     "leading keyword leaves the whole query as one operand",
			query:    "and retrieval",
			op:       OpAND,
			operands: []string{"and retrieval"},
		},
		{
			name:     "implicit or uses tokens",
			query:    "Search, ENGINES search",
			op:       OpImplicitOR,
			operands: []string{"search", "engines"},
		},
		{
			name:     "empty query",
			query:    "",
			op:       OpImplicitOR,
			operands: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Parse(tt.query)
			assert.Equal(t, tt.op, plan.Operator)
			assert.Equal(t, tt.operands, plan.Operands)
			assert.Equal(t, tt.query, plan.RawQuery)
		})
	}
}

func TestOperator_String(t *testing.T) {
	assert.Equal(t, "AND", OpAND.String())
	assert.Equal(t, "OR", OpOR.String())
	assert.Equal(t, "NOT", OpNOT.String())
	assert.Equal(t, "IMPLICIT_OR", OpImplicitOR.String())

	data, err := json.Marshal(map[string]Operator{"op": OpNOT})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"op":"NOT"}`, string(data))
}

func TestOperator_UnmarshalText(t *testing.T) {
	var got struct {
		Op Operator `json:"op"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"op":"OR"}`), &got))
	assert.Equal(t, OpOR, got.Op)

	assert.Error(t, json.Unmarshal([]byte(`{"op":"XOR"}`), &got))
}

func TestSplitBatch(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Boolean and retrieval, data not mining", []string{"Boolean and retrieval", "data not mining"}},
		{"  single  ", []string{"single"}},
		{"a,,b, ,", []string{"a", "b"}},
		{"", []string{}},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitBatch(tt.input))
		})
	}
}
