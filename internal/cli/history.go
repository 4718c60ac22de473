package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/food-search/internal/food"
)

// NewHistoryCmd creates the history command group.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage your search history",
		Long: `Your history is what makes local results and suggestions work.

Foods you pick are kept as usage records that expire after
usage.retention without use. Every pick and search is also logged for
suggestions and analytics; search queries are stored only as SHA256 hashes.

Commands:
  list    Show your usage records (the default)
  stats   Count stored rows
  export  Export selection events as JSON
  prune   Delete logged events older than a cutoff
  clear   Delete all history`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, false)
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryStatsCmd())
	cmd.AddCommand(newHistoryExportCmd())
	cmd.AddCommand(newHistoryPruneCmd())
	cmd.AddCommand(newHistoryClearCmd())

	return cmd
}

// newHistoryListCmd shows the personal usage records.
func newHistoryListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show your usage records, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func runHistoryList(cmd *cobra.Command, jsonOutput bool) error {
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		jsonOutput = true
	}

	st, err := stackFor(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, done := st.session(cmd)
	defer done()

	records := sess.History(cmd.Context())
	if records == nil {
		records = []food.UsageRecord{}
	}
	out := cmd.OutOrStdout()

	if jsonOutput {
		s, err := formatJSON(records)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No history yet.")
		fmt.Fprintln(out, "Run 'food-search select' after a search to record a pick.")
		return nil
	}

	fmt.Fprintf(out, "Your foods (%d):\n\n", len(records))
	for i, r := range records {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, r.Candidate.DisplayName)
		fmt.Fprintf(out, "      id %s  used %d×  last %s\n", r.Candidate.ID, r.UsageCount, r.LastUsedAt.Local().Format(time.DateTime))
		if len(r.MatchedQueries) > 0 {
			fmt.Fprintf(out, "      queries: %s\n", strings.Join(r.MatchedQueries, ", "))
		}
	}
	return nil
}

// newHistoryStatsCmd counts stored rows.
func newHistoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show history statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store := openStore(cfg)
			defer store.Close()

			stats, err := store.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "History")
			fmt.Fprintln(out, "=======")
			fmt.Fprintf(out, "Database:   %s\n", store.Path())
			fmt.Fprintf(out, "Enabled:    %t\n", store.Enabled())
			fmt.Fprintf(out, "Selections: %d\n", stats.Selections)
			fmt.Fprintf(out, "Searches:   %d\n", stats.Searches)
			fmt.Fprintf(out, "Entries:    %d\n", stats.Entries)
			fmt.Fprintf(out, "Retention:  %s without use\n", cfg.Usage.Retention)
			return nil
		},
	}
}

// newHistoryExportCmd exports selection events as JSON.
func newHistoryExportCmd() *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export selection events as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store := openStore(cfg)
			defer store.Close()

			events, err := store.GetSelections(time.Now().Add(-since))
			if err != nil {
				return err
			}
			s, err := formatJSON(events)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 30*24*time.Hour, "Export events newer than this")
	return cmd
}

// newHistoryPruneCmd removes logged events older than a cutoff.
func newHistoryPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete logged events older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store := openStore(cfg)
			defer store.Close()

			if err := store.Cleanup(olderThan); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned events older than %s\n", olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Delete events older than this")
	return cmd
}

// newHistoryClearCmd deletes all history.
func newHistoryClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprint(out, "This will delete all history. Continue? (y/N): ")
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				response = strings.TrimSpace(response)
				if response != "y" && response != "Y" {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store := openStore(cfg)
			defer store.Close()

			if !store.Enabled() {
				fmt.Fprintln(out, "No history found")
				return nil
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(out, "History cleared successfully")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// formatJSON pretty-prints JSON for export.
func formatJSON(data any) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
