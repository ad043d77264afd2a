package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

type searchOptions struct {
	corpus corpusOptions
	format string
}

// searchResult is one answered query in JSON output.
type searchResult struct {
	executor.Result
	Documents []corpus.Document `json:"documents"`
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <queries>",
		Short: "Evaluate comma-separated Boolean queries",
		Long: `Build the index and evaluate one or more comma-separated queries.

Examples:
  boolsearch search "Boolean and retrieval, data not mining"
  boolsearch search --dir ./docs "search engines"
  boolsearch search --format json "Boolean or algorithms"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	opts.corpus.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, input string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	queries := parser.SplitBatch(input)
	if len(queries) == 0 {
		return apperrors.New(apperrors.ErrEmptyQuery, 400, "no query given")
	}

	docs, err := opts.corpus.load(cmd.Context())
	if err != nil {
		return err
	}
	engine := indexer.NewEngine(corpus.NewStaticSource(docs), indexer.WithMinDocuments(opts.corpus.minDocs))
	snap, err := engine.Reload(cmd.Context())
	if err != nil {
		return err
	}

	results := make([]searchResult, 0, len(queries))
	for _, q := range queries {
		res := engine.SearchSnapshot(snap, q)
		out := searchResult{Result: res, Documents: make([]corpus.Document, 0, len(res.DocIDs))}
		for _, id := range res.DocIDs {
			out.Documents = append(out.Documents, corpus.Document{ID: id, Text: snap.Corpus[id]})
		}
		results = append(results, out)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return writeText(cmd.OutOrStdout(), results)
}

func writeText(w io.Writer, results []searchResult) error {
	for _, r := range results {
		fmt.Fprintf(w, "Query: '%s'\n", r.Query)
		fmt.Fprintf(w, "Results: [%s]\n", strings.Join(r.DocIDs, ", "))
		fmt.Fprintln(w, "Documents:")
		for _, d := range r.Documents {
			fmt.Fprintf(w, "  %s: %s\n", d.ID, d.Text)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
