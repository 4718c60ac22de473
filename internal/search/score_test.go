package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore_Monotonicity(t *testing.T) {
	exact := Score("Chicken", "chicken")
	prefix := Score("Chicken Stew", "chicken")
	overlap := Score("Stewed Chicken", "chicken")
	none := Score("Tofu", "chicken")

	if !(exact > prefix && prefix > overlap && overlap > none) {
		t.Errorf("expected exact > prefix > overlap > none, got %v %v %v %v", exact, prefix, overlap, none)
	}
	assert.Zero(t, none)
}

func TestScore_ConcreteExample(t *testing.T) {
	breast := Score("Chicken Breast (roasted)", "chicken breast")
	rice := Score("White Rice (cooked)", "chicken breast")

	assert.Greater(t, breast, rice)
	// prefix + two words + preparation affinity
	assert.Equal(t, 750.0, breast)
	assert.Zero(t, rice)
}

func TestScorer_Components(t *testing.T) {
	s := DefaultScorer()

	tests := []struct {
		name      string
		query     string
		text      float64
		structure float64
	}{
		{"rice", "Rice", 1000 + 500 + 100, 0},
		{"brown rice", "rice", 100, 0},
		{"Rice, white, cooked", "rice", 500 + 100, -40 + 50},
		{"Salmon, raw", "tuna salmon", 100, -20 + 50},
		{"", "rice", 0, 0},
		{"rice", "   ", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.text, s.Text(tt.name, tt.query))
			if tt.name != "" {
				assert.Equal(t, tt.structure, s.Structure(tt.name))
			}
		})
	}
}

func TestScorer_StructureOnlyWhenRelevant(t *testing.T) {
	s := DefaultScorer()
	assert.Zero(t, s.Score("Beef, raw", "chicken"))
	assert.Equal(t, 200.0-20+50, s.Score("Beef, raw", "raw beef"))
}

func TestUsageWeights_Bonus(t *testing.T) {
	w := DefaultUsageWeights()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 30.0+50, w.Bonus(3, now.Add(-10*time.Minute), now))
	assert.Equal(t, 30.0, w.Bonus(3, now.Add(-2*time.Hour), now))
	assert.Equal(t, 0.0, w.Bonus(0, time.Time{}, now))
}

func TestExpand(t *testing.T) {
	assert.Equal(t, Expansions["chicken"], Expand("  Chicken "))
	assert.Equal(t, []string{"chicken breast"}, Expand("chicken breast"))
	assert.Equal(t, []string{"rice"}, Expand("rice"))

	// callers may mutate the result without touching the table
	got := Expand("tuna")
	got[0] = "changed"
	assert.Equal(t, "tuna", Expansions["tuna"][0])
}
