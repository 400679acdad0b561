// Command bm25 searches a corpus from the terminal.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/cmd/bm25/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
