package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
)

func newIndexCmd() *cobra.Command {
	var opts corpusOptions
	var format string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Print the inverted index of a corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "text" && format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q", format)
			}
			docs, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			engine := indexer.NewEngine(corpus.NewStaticSource(docs), indexer.WithMinDocuments(opts.minDocs))
			snap, err := engine.Reload(cmd.Context())
			if err != nil {
				return err
			}

			entries := snap.Index.Snapshot()
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case "yaml":
				enc := yaml.NewEncoder(out)
				if err := enc.Encode(entries); err != nil {
					_ = enc.Close()
					return err
				}
				return enc.Close()
			}

			stats := snap.Stats()
			fmt.Fprintf(out, "%d terms, %d documents\n", stats.Terms, stats.Documents)
			for _, e := range entries {
				fmt.Fprintf(out, "%s: %s\n", e.Term, strings.Join(e.DocIDs, ", "))
			}
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, yaml")

	return cmd
}
