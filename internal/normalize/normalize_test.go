package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_KnownFamilies(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		rule     string
	}{
		{"Chicken, broilers or fryers, breast, meat only, cooked, roasted", "Chicken Breast (roasted)", "chicken-cut"},
		{"Chicken, broilers or fryers, thigh, meat only, raw", "Chicken Thigh (raw)", "chicken-cut"},
		{"chicken breast, cooked", "Chicken Breast (cooked)", "chicken-cut"},
		{"Chicken, broilers or fryers, meat and skin, cooked, roasted", "Chicken", "chicken"},
		{"Beef, ground, 85% lean meat / 15% fat, raw", "Ground Beef 85/15", "ground-meat"},
		{"Salmon, cooked", "Salmon (cooked)", "fish"},
		{"Rice, white, cooked", "White Rice (cooked)", "rice-trailing"},
		{"Rice, white, long-grain, regular, cooked", "White Rice", "rice-trailing"},
		{"Broccoli, raw", "Broccoli (raw)", "vegetable"},
		{"Egg, whole, cooked, hard-boiled", "Egg (cooked)", "egg"},
		{"Yogurt, Greek, plain, nonfat", "Greek Yogurt", "yogurt"},
		{"Milk, whole, 3.25% milkfat", "Whole Milk", "milk"},
		{"Cheese, mozzarella, whole milk", "Mozzarella Cheese", "cheese"},
		{"Yogurt, plain, whole milk", "Plain Yogurt (whole milk)", "yogurt"},
		{"Nuts, almonds", "Almonds", "nuts"},
		{"Bananas, raw", "Banana", "fruit"},
	}

	n := Default()
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, rule := n.Explain(tt.raw)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

func TestNormalize_Fallback(t *testing.T) {
	tests := map[string]string{
		"Quinoa, cooked":        "Quinoa",
		"  Tofu,   firm  ":      "Tofu",
		"Spices, pepper, black": "Spices",
		"Hummus":                "Hummus",
	}
	for raw, expected := range tests {
		got, rule := Default().Explain(raw)
		if got != expected {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got, expected)
		}
		if rule != "first-segment" {
			t.Errorf("Normalize(%q) used rule %q, want first-segment", raw, rule)
		}
	}
}

func TestNormalize_BlankAndSeparatorOnly(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   \t "))
	assert.Equal(t, Unnamed, Normalize(",,, ;"))
}

func TestNormalize_Idempotent(t *testing.T) {
	raws := []string{
		"Chicken, broilers or fryers, breast, meat only, cooked, roasted",
		"Chicken, broilers or fryers, meat and skin, cooked, roasted",
		"Beef, ground, 85% lean meat / 15% fat, raw",
		"Salmon, cooked",
		"Rice, white, cooked",
		"Broccoli, raw",
		"Egg, whole, cooked, hard-boiled",
		"Yogurt, Greek, plain, nonfat",
		"Milk, whole, 3.25% milkfat",
		"Nuts, almonds",
		"Quinoa, cooked",
	}
	for _, raw := range raws {
		once := Normalize(raw)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "re-normalizing output of %q", raw)
	}
}

func TestNormalize_OutputShape(t *testing.T) {
	raws := []string{
		"Chicken, broilers or fryers, breast, meat only, cooked, roasted",
		"Soup, chicken noodle, canned ,  condensed",
		"; Crackers, saltines ;",
		"Pork, fresh, loin, chop , grilled",
		"Cheese, cheddar, shredded",
		"Bread, whole wheat, sliced",
		"Potatoes, sweet, baked",
		"Beans, black, canned",
		"x",
	}
	for _, raw := range raws {
		got := Normalize(raw)
		require.NotEmpty(t, got, raw)
		assert.NotContains(t, got, "  ", raw)
		assert.False(t, strings.HasPrefix(got, ",") || strings.HasPrefix(got, ";"), "leading separator in %q", got)
		assert.False(t, strings.HasSuffix(got, ",") || strings.HasSuffix(got, ";"), "trailing separator in %q", got)
		assert.Equal(t, strings.TrimSpace(got), got)
	}
}

func TestNew_PriorityOrder(t *testing.T) {
	low := NewRule("low", 1, `chicken`, "", "Low")
	high := NewRule("high", 5, `chicken`, "", "High")

	n := New(low, high)
	got, rule := n.Explain("chicken soup")
	assert.Equal(t, "High", got)
	assert.Equal(t, "high", rule)

	rules := n.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "high", rules[0].Name)
	assert.Equal(t, "low", rules[1].Name)
	assert.Equal(t, "first-segment", rules[2].Name)
}

func TestNew_EqualPriorityKeepsTableOrder(t *testing.T) {
	first := NewRule("first", 3, `rice`, "", "First")
	second := NewRule("second", 3, `rice`, "", "Second")

	assert.Equal(t, "First", New(first, second).Normalize("rice"))
	assert.Equal(t, "Second", New(second, first).Normalize("rice"))
}

func TestRule_Exclude(t *testing.T) {
	r := NewRule("no-soup", 1, `chicken`, `soup`, "Chicken")
	n := New(r)

	assert.Equal(t, "Chicken", n.Normalize("chicken, roasted"))
	assert.Equal(t, "Soup", n.Normalize("Soup, chicken"))
}

func TestNewRule_PanicsOnMissingGroup(t *testing.T) {
	assert.Panics(t, func() {
		NewRule("bad", 1, `(a)`, "", "{cap:2}")
	})
}

func TestParseTemplate(t *testing.T) {
	_, err := parseTemplate("{cap:1")
	assert.Error(t, err)
	_, err = parseTemplate("{shout:1}")
	assert.Error(t, err)
	_, err = parseTemplate("{cap}")
	assert.Error(t, err)
	_, err = parseTemplate("{cap:0}")
	assert.Error(t, err)

	tmpl, err := parseTemplate("{capsp:1,2}Milk{paren:3}")
	require.NoError(t, err)
	assert.Equal(t, 3, tmpl.maxGroup())
	assert.Equal(t, "Skim Milk (fresh)", tmpl.render([]string{"", "", "SKIM", "Fresh"}))
	assert.Equal(t, "Milk", tmpl.render([]string{"", "", "", ""}))

	withDefault := mustParseTemplate("{cap:1|Mixed Nuts}")
	assert.Equal(t, "Mixed Nuts", withDefault.render([]string{"nuts", ""}))
	assert.Equal(t, "Pecans", withDefault.render([]string{"nuts", "pecans"}))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"Chicken, broilers or fryers, breast", "protein_meat/poultry"},
		{"Beef, ground, 85% lean meat / 15% fat", "protein_meat/red_meat"},
		{"Salmon, cooked", "protein_fish/fatty_fish"},
		{"Fish, cod, Atlantic", "protein_fish/white_fish"},
		{"Shrimp, raw", "protein_fish/shellfish"},
		{"Egg, whole, raw", "protein_eggs_dairy/eggs"},
		{"Yogurt, Greek", "protein_eggs_dairy/dairy"},
		{"Spinach, raw", "vegetables/leafy_greens"},
		{"Broccoli, raw", "vegetables/cruciferous"},
		{"Bananas, raw", "fruits"},
		{"Rice, white", "grains"},
		{"Lentils, cooked", "legumes"},
		{"Nuts, almonds", "nuts_seeds"},
		{"Oil, olive", "oils_fats"},
		{"Quinoa, cooked", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Categorize(tt.raw).String(), tt.raw)
	}
}
