package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/food-search/internal/config"
	"github.com/khanglvm/food-search/internal/engine"
	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/suggest"
)

const bananaID = "173944"

// writeConfig points the CLI at the bundled catalog and a temp database.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "food-search.yaml")
	data := fmt.Sprintf(`provider:
  kind: static
  expand: false
storage:
  path: %s
feedback:
  flush_interval: 5ms
log:
  level: error
`, filepath.Join(dir, "history.db"))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "food-search" {
		t.Errorf("Expected Use='food-search', got %q", cmd.Use)
	}
	for _, name := range []string{"search", "select", "normalize", "history", "suggest", "config", "version"} {
		found, _, err := cmd.Find([]string{name})
		if err != nil || found.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "log-level", "user"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("Persistent flag %q not registered", flag)
		}
	}
}

func TestSearchCommandFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantJSON  bool
		wantLimit int
	}{
		{"no flags", []string{}, false, 0},
		{"json flag", []string{"--json"}, true, 0},
		{"short flags", []string{"-j", "-n", "3"}, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewSearchCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() failed: %v", err)
			}
			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag != tt.wantJSON {
				t.Errorf("json flag = %v, want %v", jsonFlag, tt.wantJSON)
			}
			limit, _ := cmd.Flags().GetInt("limit")
			if limit != tt.wantLimit {
				t.Errorf("limit flag = %d, want %d", limit, tt.wantLimit)
			}
		})
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	_, err := run(t, "", "--config", writeConfig(t), "search")
	assert.Error(t, err)
}

func TestNormalizeArgs(t *testing.T) {
	out, err := run(t, "", "normalize",
		"Chicken, broilers or fryers, breast, meat only, cooked, roasted",
		"Bananas, raw",
	)
	require.NoError(t, err)
	assert.Equal(t, "Chicken Breast (roasted)\tprotein_meat/poultry\nBanana\tfruits\n", out)
}

func TestNormalizeStdinJSON(t *testing.T) {
	out, err := run(t, "Rice, white, cooked\n\nNuts, almonds\n", "normalize", "--json", "--explain")
	require.NoError(t, err)

	var got []normalized
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "White Rice (cooked)", got[0].DisplayName)
	assert.Equal(t, "grains", got[0].Category)
	assert.NotEmpty(t, got[0].Rule)
	assert.Equal(t, "Almonds", got[1].DisplayName)
}

func TestSearchJSON(t *testing.T) {
	out, err := run(t, "", "--config", writeConfig(t), "search", "Banana", "--json")
	require.NoError(t, err)

	var resp engine.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "banana", resp.Query)
	assert.Equal(t, engine.TierRemote, resp.Tier)
	assert.Empty(t, resp.Local)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, bananaID, resp.Results[0].ID)
	assert.Equal(t, "Banana", resp.Results[0].DisplayName)
	assert.Equal(t, food.SourceRemote, resp.Results[0].Source)
}

func TestSearchText(t *testing.T) {
	out, err := run(t, "", "--config", writeConfig(t), "search", "chicken", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `Results for "chicken" (remote`)
	assert.Contains(t, out, "[remote]")
	assert.Equal(t, 2, strings.Count(out, "per 100g"))

	out, err = run(t, "", "--config", writeConfig(t), "search", "quinoa")
	require.NoError(t, err)
	assert.Contains(t, out, `No foods found for "quinoa"`)
}

func TestSearchMetrics(t *testing.T) {
	out, err := run(t, "", "--config", writeConfig(t), "search", "banana", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, `food_search_searches_total{tier="remote"} 1`)
	assert.Contains(t, out, `food_search_session_cache_total{result="miss"} 1`)
	assert.Contains(t, out, "food_search_remote_duration_seconds_count 1")
}

func TestSelectFeedsHistoryAndSuggestions(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "", "--config", cfg, "select", bananaID, "--query", "Banana")
	require.NoError(t, err)
	assert.Contains(t, out, `Recorded Banana for "Banana" (position 1)`)

	out, err = run(t, "", "--config", cfg, "search", "banana", "--json")
	require.NoError(t, err)
	var resp engine.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Local, 1)
	require.Len(t, resp.Results, 1, "local and remote copies collapse")
	assert.Equal(t, food.SourceLocal, resp.Results[0].Source)

	out, err = run(t, "", "--config", cfg, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Banana")
	assert.Contains(t, out, "queries: banana")

	out, err = run(t, "", "--config", cfg, "history", "list", "--json")
	require.NoError(t, err)
	var records []food.UsageRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].UsageCount)

	out, err = run(t, "", "--config", cfg, "suggest", "--json")
	require.NoError(t, err)
	var suggestions []suggest.Suggestion
	require.NoError(t, json.Unmarshal([]byte(out), &suggestions))
	require.Len(t, suggestions, 1)
	assert.Equal(t, bananaID, suggestions[0].CandidateID)
	assert.Equal(t, "Banana", suggestions[0].Name)

	out, err = run(t, "", "--config", cfg, "--user", "someone-else", "suggest")
	require.NoError(t, err)
	assert.Contains(t, out, "No recent picks")

	out, err = run(t, "", "--config", cfg, "history", "export")
	require.NoError(t, err)
	var events []food.SelectionEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "banana", events[0].Query)
	assert.Equal(t, 1, events[0].RankPosition)

	out, err = run(t, "", "--config", cfg, "history", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Selections: 1")
	// One search from select's lookup and one from the explicit search.
	assert.Contains(t, out, "Searches:   2")
}

func TestSelectErrors(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, "", "--config", cfg, "select", "999999", "--query", "banana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the results")

	_, err = run(t, "", "--config", cfg, "select", bananaID)
	assert.Error(t, err, "--query is required")

	_, err = run(t, "", "--config", cfg, "select", bananaID, "--query", "banana", "--position", "-1")
	assert.Error(t, err)
}

func TestSuggestFallback(t *testing.T) {
	out, err := run(t, "", "--config", writeConfig(t), "suggest")
	require.NoError(t, err)
	assert.Contains(t, out, "No recent picks. Try: chicken breast, rice")
}

func TestHistoryClear(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, "", "--config", cfg, "select", bananaID, "--query", "banana")
	require.NoError(t, err)

	out, err := run(t, "n\n", "--config", cfg, "history", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	out, err = run(t, "", "--config", cfg, "history", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "History cleared successfully")

	out, err = run(t, "", "--config", cfg, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No history yet.")
}

func TestHistoryPrune(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "", "--config", cfg, "history", "prune", "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned events older than 1h0m0s")

	_, err = run(t, "", "--config", cfg, "history", "prune", "--older-than", "0s")
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := run(t, "", "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	_, err = run(t, "", "config", "init", "--path", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, "", "config", "init", "--path", path, "--force")
	require.NoError(t, err)

	t.Setenv("FOOD_SEARCH_PROVIDER_API_KEY", "secret")
	t.Setenv("FOOD_SEARCH_MERGE_MAX_RESULTS", "7")
	out, err = run(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_results: 7")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "secret")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "search", "rice")
	require.Error(t, err)
	assert.True(t, config.IsNotFound(err))
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:  dev")
	assert.Contains(t, out, "Commit:")
}
