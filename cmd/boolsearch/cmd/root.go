// Package cmd provides the boolsearch commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/logger"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var logLevel, logFormat string

	cmd := &cobra.Command{
		Use:   "boolsearch",
		Short: "Boolean retrieval over an inverted index",
		Long: `boolsearch indexes a corpus of text documents and evaluates Boolean
queries against it.

A query uses at most one operator, chosen by precedence AND > OR > NOT:
  boolean and retrieval    documents containing both terms
  boolean or algorithms    documents containing either term
  data not mining          documents containing data but not mining
  search engines           documents containing any of the words`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.SetupWriter(cmd.ErrOrStderr(), logLevel, logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLoadtestCmd())

	return cmd
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// corpusOptions are the flags shared by commands that index a local corpus.
type corpusOptions struct {
	dir     string
	sample  bool
	minDocs int
}

func (o *corpusOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dir, "dir", "d", "", "Directory of .txt documents (file name is the document ID)")
	cmd.Flags().BoolVar(&o.sample, "sample", false, "Use the built-in sample corpus")
	cmd.Flags().IntVar(&o.minDocs, "min-docs", corpus.DefaultMinDocuments, "Minimum number of documents required")
	cmd.MarkFlagsMutuallyExclusive("dir", "sample")
}

// load returns the selected corpus; without --dir the sample corpus is used.
func (o *corpusOptions) load(ctx context.Context) (corpus.Corpus, error) {
	if o.dir == "" {
		return corpus.Sample(), nil
	}
	return corpus.LoadDir(ctx, o.dir)
}
