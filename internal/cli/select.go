package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSelectCmd creates the 'select' command.
func NewSelectCmd() *cobra.Command {
	var query string
	var position int

	cmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Record that you picked a food",
		Long: `Record a confirmed pick of the food with the given id for a query.

The food is looked up in the results for the query, so the id must be one
that 'food-search search' showed. The pick is added to your history and
ranks first the next time you search something similar.`,
		Example: `  food-search select 171477 --query "chicken breast"
  food-search select 168878 --query rice --position 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, args[0], query, position)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Query the food was picked for (required)")
	cmd.Flags().IntVarP(&position, "position", "p", 0, "1-based position it was shown at (default: its current position)")
	cmd.Flags().String("session", "", "Session id the results came from")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func runSelect(cmd *cobra.Command, id, query string, position int) error {
	if position < 0 {
		return fmt.Errorf("--position must be positive, got %d", position)
	}

	st, err := stackFor(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	sess, done := st.session(cmd)
	defer done()

	c, shown, ok := sess.Find(ctx, query, id)
	if !ok {
		return fmt.Errorf("food %s is not in the results for %q", id, query)
	}
	if position == 0 {
		position = shown
	}

	sess.Select(ctx, c, query, position)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %s for %q (position %d)\n", c.DisplayName, query, position)
	return nil
}
