/*
Package main is the entry point for the food-search CLI.

food-search looks foods up in a nutrition catalog and ranks them with your
own history first: foods you picked before come back instantly, catalog
results are cached per session, and every pick feeds suggestions.

Usage:

	food-search [command]

Available Commands:

	search      Search foods, with your history ranked first
	select      Record that you picked a food
	normalize   Turn catalog descriptions into display names
	history     Inspect and manage your search history
	suggest     Suggest foods from your recent picks
	config      Create or show configuration
	version     Show version information

Examples:

	# Use the bundled catalog instead of FoodData Central
	FOOD_SEARCH_PROVIDER_KIND=static food-search search chicken

	# Record a pick
	food-search select 171477 --query chicken
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/khanglvm/food-search/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
