// Command boolsearch builds a Boolean inverted index over a corpus and
// answers AND / OR / NOT queries from the command line or over HTTP.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/cmd/boolsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
