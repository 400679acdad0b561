// Package cmd provides the bm25 CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/logger"
)

type options struct {
	configPath string
	corpusPath string
	format     string
	logLevel   string
	cfg        *config.Config
}

// NewRootCmd creates the root command for the bm25 CLI.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "bm25",
		Short: "Rank a text corpus with Okapi BM25",
		Long: `bm25 loads a corpus of (url, content) documents, builds an inverted
index in memory and ranks documents against queries with Okapi BM25.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.corpusPath, "corpus", "", "Corpus file (overrides corpus.path and selects the file source)")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "", "Corpus file format: auto, lines or blocks")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	cmd.AddCommand(newQueryCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) load(cmd *cobra.Command) error {
	logger.SetupWriter(cmd.ErrOrStderr(), o.logLevel, "text")

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if o.corpusPath != "" {
		cfg.Corpus.Source = "file"
		cfg.Corpus.Path = o.corpusPath
	}
	if o.format != "" {
		cfg.Corpus.Format = o.format
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}
