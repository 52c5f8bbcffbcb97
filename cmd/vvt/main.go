package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecvstext/internal/version"
	vecvstext "github.com/kailas-cloud/vecvstext/pkg/sdk"
)

func main() {
	var (
		baseURL   string
		timeout   time.Duration
		wordsID   string
		project   bool
		source    string
		jsonOut   bool
		noAnchor  bool
		badgerDir string
	)

	rootCmd := &cobra.Command{
		Use:          "vvt",
		Short:        "Compare vector and full-text search over the books API",
		Version:      version.String(),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", envOr("VVT_BOOKS_API_URL", "http://localhost:8000"),
		"Books API base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall deadline")

	compareCmd := &cobra.Command{
		Use:   "compare <query>",
		Short: "Run a query on both engines and print the results side by side",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []vecvstext.Option{
				vecvstext.WithBooksAPI(baseURL),
				vecvstext.WithCandidateSource(source),
			}
			if noAnchor {
				opts = append(opts, vecvstext.WithoutQueryAnchor())
			}
			if badgerDir != "" {
				opts = append(opts, vecvstext.WithBadger(badgerDir))
			}
			return runCompare(cmd.Context(), strings.Join(args, " "), timeout, compareFlags{
				wordsID: wordsID,
				project: project,
				json:    jsonOut,
			}, opts...)
		},
	}
	compareCmd.Flags().StringVar(&wordsID, "words", "", "Result id whose matched words to print")
	compareCmd.Flags().BoolVar(&project, "project", false, "Print the 2-D projection of the candidates")
	compareCmd.Flags().StringVar(&source, "candidates", "vector", "Projection candidates: vector, text or union")
	compareCmd.Flags().BoolVar(&noAnchor, "no-anchor", false, "Leave the query out of the projection")
	compareCmd.Flags().StringVar(&badgerDir, "cache-dir", "", "Cache word lists and embeddings in this directory")
	compareCmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the books API is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := vecvstext.New(cmd.Context(), vecvstext.WithBooksAPI(baseURL))
			if err != nil {
				return err
			}
			defer c.Close()
			h := c.Health(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), h.Status)
			if h.Status == "error" {
				return errors.New("books API unreachable")
			}
			return nil
		},
	}

	rootCmd.AddCommand(compareCmd, healthCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type compareFlags struct {
	wordsID string
	project bool
	json    bool
}

func runCompare(ctx context.Context, query string, timeout time.Duration, f compareFlags, opts ...vecvstext.Option) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := vecvstext.New(ctx, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	out := report{}
	out.Comparison, err = c.Compare(ctx, query)
	if err != nil && out.Comparison == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if f.project && len(out.Comparison.Candidates) > 0 {
		out.Projection, err = c.Project(ctx, out.Comparison.Query, out.Comparison.Candidates)
		if err != nil {
			out.ProjectionError = err.Error()
		}
	}
	if f.wordsID != "" {
		out.Words, err = c.Words(ctx, out.Comparison.Query, f.wordsID)
		if err != nil {
			out.WordsError = err.Error()
		}
	}

	if f.json {
		return writeJSON(os.Stdout, out)
	}
	return writeText(os.Stdout, out)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
