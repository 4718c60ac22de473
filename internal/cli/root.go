/*
Package cli implements the food-search commands.

Every command that searches or reads history builds the same stack from
configuration: the SQLite history database (personal-usage records and
selection events), a session cache backend, the remote provider, the
feedback recorder, and the engine on top of them.
*/
package cli

import (
	"github.com/spf13/cobra"

	"github.com/khanglvm/food-search/internal/version"
)

// NewRootCmd creates the food-search root command with every subcommand.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "food-search",
		Short: "Food search with personal ranking",
		Long: `food-search looks foods up in a nutrition catalog and ranks them for you.

Foods you have picked before are answered instantly from local history and
always rank above fresh catalog results. Catalog lookups are cached for the
session, and every pick is recorded so suggestions improve over time.

History is stored locally in ~/.food-search/history.db.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file (default ./food-search.yaml or ~/.config/food-search/config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String("user", "", "User whose history is used (default: the local user)")

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewSelectCmd())
	cmd.AddCommand(NewNormalizeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewSuggestCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
