package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/bm25-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
)

const (
	prompt    = "Enter a search query: "
	noResults = "No search results found."
)

func newQueryCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "query [terms...]",
		Short: "Search the corpus",
		Long: `Search the corpus and print the best matches with their BM25 scores.

With arguments the query runs once. Without arguments bm25 prompts for
queries until end of input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = opts.cfg.Search.DefaultLimit
			}
			if limit < 0 {
				return apperrors.Newf(apperrors.ErrInvalidLimit, http.StatusBadRequest, "limit must not be negative, got %d", limit)
			}
			engine, err := loader.LoadEngine(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			bm25 := opts.cfg.Search.BM25
			exec := executor.New(engine, ranker.Params{K1: bm25.K1, B: bm25.B})
			s := &session{
				exec:   exec,
				limit:  limit,
				maxLen: opts.cfg.Search.MaxQueryLength,
				out:    cmd.OutOrStdout(),
			}
			if len(args) > 0 {
				return s.run(cmd.Context(), strings.Join(args, " "))
			}
			return s.interactive(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")

	return cmd
}

type session struct {
	exec   *executor.Executor
	limit  int
	maxLen int
	out    io.Writer
}

func (s *session) interactive(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, prompt)
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		query := strings.TrimSpace(sc.Text())
		if query == "" {
			continue
		}
		if err := s.run(ctx, query); err != nil {
			// a rejected query does not end the session
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// run prints matching documents only; documents that scored 0 are left out.
func (s *session) run(ctx context.Context, query string) error {
	plan, err := parser.Parse(query, s.maxLen)
	if err != nil {
		return err
	}
	if plan.Empty() {
		fmt.Fprintln(s.out, noResults)
		return nil
	}
	res, err := s.exec.Execute(ctx, plan, s.limit)
	if err != nil {
		return err
	}
	if res.TotalHits == 0 || len(res.Results) == 0 {
		fmt.Fprintln(s.out, noResults)
		return nil
	}
	for i, doc := range res.Results {
		if doc.Score <= 0 {
			break
		}
		fmt.Fprintf(s.out, "%d. %s (score: %.4f)\n", i+1, doc.URL, doc.Score)
	}
	return nil
}
