package food

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "chicken breast", NormalizeQuery("  Chicken Breast \t"))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestUsageRecord_Touch(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	c := Candidate{ID: "1", DisplayName: "Banana"}

	var r UsageRecord
	r.Touch(c, "Banana", now, 2)
	r.Touch(c, "banana ", now.Add(time.Minute), 2)
	r.Touch(c, "fruit", now.Add(2*time.Minute), 2)
	r.Touch(c, "yellow", now.Add(3*time.Minute), 2)
	r.Touch(c, "", now.Add(4*time.Minute), 2)

	assert.Equal(t, 5, r.UsageCount)
	assert.Equal(t, now.Add(4*time.Minute), r.LastUsedAt)
	assert.Equal(t, []string{"banana", "fruit"}, r.MatchedQueries, "deduplicated, capped, oldest kept")
}

func TestTag(t *testing.T) {
	in := []Candidate{{ID: "a", Source: SourceRemote}, {ID: "b", Source: SourceRemote}}
	out := Tag(in, SourceSession)

	for _, c := range out {
		assert.Equal(t, SourceSession, c.Source)
	}
	assert.Equal(t, SourceRemote, in[0].Source, "input is not modified")
}
