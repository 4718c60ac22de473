package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/suggest"
)

// NewSuggestCmd creates the 'suggest' command.
func NewSuggestCmd() *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest foods from your recent picks",
		Long: `Rank the foods you picked recently.

Score = 0.6*frequency + 0.3*recency + 0.1*position quality, where frequency
counts picks in the last 7 days, recency decays with a 24h half-life, and
position quality rewards foods picked near the top of the list.

With no picks yet, common foods are suggested instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, limit, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of suggestions")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runSuggest(cmd *cobra.Command, limit int, jsonOutput bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store := openStore(cfg)
	defer store.Close()

	now := time.Now()
	events, err := store.GetSelections(now.Add(-cfg.Usage.Retention))
	if err != nil {
		return err
	}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		events = forUser(events, user)
	}

	ranked := suggest.Rank(events, now, limit)
	out := cmd.OutOrStdout()

	if jsonOutput {
		s, err := formatJSON(ranked)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
		return nil
	}

	if len(ranked) == 0 {
		fmt.Fprintf(out, "No recent picks. Try: %s\n", strings.Join(suggest.Fallback(), ", "))
		return nil
	}

	fmt.Fprintln(out, "Suggested for you:")
	fmt.Fprintln(out)
	for i, s := range ranked {
		name := s.Name
		if name == "" {
			name = s.CandidateID
		}
		fmt.Fprintf(out, "  %d. %-36s %d picks  score %.3f\n", i+1, name, s.Count, s.Score)
	}
	return nil
}

func forUser(events []food.SelectionEvent, user string) []food.SelectionEvent {
	out := events[:0:0]
	for _, e := range events {
		if e.UserID == user {
			out = append(out, e)
		}
	}
	return out
}
