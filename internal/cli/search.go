package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/food-search/internal/engine"
	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/metrics"
)

// NewSearchCmd creates the 'search' command.
func NewSearchCmd() *cobra.Command {
	var jsonOutput bool
	var limit int
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search foods, with your history ranked first",
		Long: `Search the catalog for foods matching the query.

Instant predictions from your history are printed first, then the merged
list. Each result is tagged with where it came from: local (your history),
session (cached for this session) or remote (the catalog).`,
		Example: `  food-search search chicken breast
  food-search search rice --limit 5
  food-search search salmon --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), jsonOutput, limit, showMetrics)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n results (0 for all)")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print engine metrics after the results")
	cmd.Flags().String("session", "", "Session id; reuse it to hit the session cache (redis backend)")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, jsonOutput bool, limit int, showMetrics bool) error {
	st, err := stackFor(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, done := st.session(cmd)
	defer done()

	resp := sess.Search(cmd.Context(), query)
	if limit > 0 && len(resp.Results) > limit {
		resp.Results = resp.Results[:limit]
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else {
		printResponse(out, resp)
	}

	if showMetrics {
		fmt.Fprintln(out)
		return metrics.Dump(out, st.registry)
	}
	return nil
}

func printResponse(w io.Writer, resp engine.Response) {
	if len(resp.Local) > 0 {
		fmt.Fprintf(w, "From your history (%d):\n", len(resp.Local))
		for i, c := range resp.Local {
			fmt.Fprintf(w, "  %d. %s\n", i+1, c.DisplayName)
		}
		fmt.Fprintln(w)
	}

	if len(resp.Results) == 0 {
		fmt.Fprintf(w, "No foods found for %q.\n", resp.Query)
		return
	}

	fmt.Fprintf(w, "Results for %q (%s, %s):\n\n", resp.Query, resp.Tier, resp.Duration.Round(time.Millisecond))
	for i, c := range resp.Results {
		printCandidate(w, i+1, c)
	}
}

func printCandidate(w io.Writer, pos int, c food.Candidate) {
	fmt.Fprintf(w, "  %2d. %-36s [%s]\n", pos, c.DisplayName, c.Source)
	fmt.Fprintf(w, "      id %s  %s\n", c.ID, c.Category)
	n := c.Nutrients
	fmt.Fprintf(w, "      %.0f kcal  P %.1fg  C %.1fg  F %.1fg per 100g\n", n.Calories, n.Protein, n.Carbs, n.Fat)
}
