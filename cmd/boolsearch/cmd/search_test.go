package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/parser"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSearch_TextOutputOnSample(t *testing.T) {
	out, err := run(t, "search", "--sample", "Boolean and retrieval, data not mining")
	require.NoError(t, err)

	assert.Contains(t, out, "Query: 'Boolean and retrieval'\nResults: [doc1, doc2]\nDocuments:\n  doc1: ")
	assert.Contains(t, out, "Query: 'data not mining'\nResults: [doc1]\n")
}

func TestSearch_ArgsAreJoined(t *testing.T) {
	out, err := run(t, "search", "search", "engines")
	require.NoError(t, err)

	assert.Contains(t, out, "Query: 'search engines'\nResults: [doc2, doc3, doc4]\n")
}

func TestSearch_JSONOutput(t *testing.T) {
	out, err := run(t, "search", "--format", "json", "Boolean or algorithms, nothingmatches")
	require.NoError(t, err)

	var results []searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)

	assert.Equal(t, parser.OpOR, results[0].Operator)
	assert.Equal(t, []string{"doc1", "doc2", "doc3"}, results[0].DocIDs)
	assert.Len(t, results[0].Documents, 3)

	assert.Equal(t, 0, results[1].TotalHits)
	assert.Empty(t, results[1].Documents)
}

func TestSearch_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("The cat sat."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("The dog ran."), 0o644))

	out, err := run(t, "search", "--dir", dir, "the not cat")
	require.NoError(t, err)

	assert.Contains(t, out, "Results: [b.txt]")
	assert.Contains(t, out, "  b.txt: The dog ran.")
}

func TestSearch_MinDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "only.txt"), []byte("alone"), 0o644))

	_, err := run(t, "search", "--dir", dir, "alone")
	require.Error(t, err)

	out, err := run(t, "search", "--dir", dir, "--min-docs", "1", "alone")
	require.NoError(t, err)
	assert.Contains(t, out, "Results: [only.txt]")
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"search"}},
		{"only commas", []string{"search", ", ,"}},
		{"bad format", []string{"search", "--format", "xml", "q"}},
		{"dir and sample", []string{"search", "--dir", ".", "--sample", "q"}},
		{"missing dir", []string{"search", "--dir", "/does/not/exist", "q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestIndex_Formats(t *testing.T) {
	out, err := run(t, "index", "--sample")
	require.NoError(t, err)
	assert.Contains(t, out, "7 documents")
	assert.Contains(t, out, "\nmining: doc4, doc5, doc6, doc7\n")

	out, err = run(t, "index", "--format", "json")
	require.NoError(t, err)
	var entries []index.TermEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.NotEmpty(t, entries)

	out, err = run(t, "index", "--format", "yaml")
	require.NoError(t, err)
	var fromYAML []index.TermEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, entries, fromYAML)
}
