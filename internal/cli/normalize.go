package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/food-search/internal/normalize"
)

type normalized struct {
	Raw         string `json:"raw"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Rule        string `json:"rule,omitempty"`
}

// NewNormalizeCmd creates the 'normalize' command.
func NewNormalizeCmd() *cobra.Command {
	var jsonOutput bool
	var explain bool

	cmd := &cobra.Command{
		Use:   "normalize [description...]",
		Short: "Turn catalog descriptions into display names",
		Long: `Print the display name and category for each catalog description.

Descriptions are taken from the arguments, or one per line from stdin when
there are none.`,
		Example: `  food-search normalize "Chicken, broilers or fryers, breast, meat only, cooked, roasted"
  cat descriptions.txt | food-search normalize --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, args, jsonOutput, explain)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVar(&explain, "explain", false, "Show the rule that produced each name")

	return cmd
}

func runNormalize(cmd *cobra.Command, args []string, jsonOutput, explain bool) error {
	inputs := args
	if len(inputs) == 0 {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	n := normalize.Default()
	results := make([]normalized, 0, len(inputs))
	for _, raw := range inputs {
		name, rule := n.Explain(raw)
		r := normalized{Raw: raw, DisplayName: name, Category: normalize.Categorize(raw).String()}
		if explain {
			r.Rule = rule
		}
		results = append(results, r)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		if explain {
			fmt.Fprintf(out, "%s\t%s\t%s\n", r.DisplayName, r.Category, r.Rule)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", r.DisplayName, r.Category)
	}
	return nil
}
