package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/loader"
)

func newStatsCmd(opts *options) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics and the most common terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := loader.LoadEngine(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			s := engine.Summary()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Documents:       %d\n", s.NumDocuments)
			fmt.Fprintf(out, "Distinct terms:  %d\n", s.NumTerms)
			fmt.Fprintf(out, "Total tokens:    %d\n", s.TotalTokens)
			fmt.Fprintf(out, "Avg doc length:  %.2f\n", s.AvgDocumentLength)
			fmt.Fprintf(out, "Generation:      %s\n", s.Generation)
			fmt.Fprintf(out, "Build time:      %dms\n", s.BuildMs)
			for _, p := range s.Phases {
				fmt.Fprintf(out, "  %-14s %dms\n", p.Name+":", p.DurationMs)
			}

			terms := engine.Index().TopTerms(top)
			if len(terms) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TERM\tDOCS")
			for _, t := range terms {
				fmt.Fprintf(tw, "%s\t%d\n", t.Term, t.DocFreq)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Number of most common terms to list")

	return cmd
}
