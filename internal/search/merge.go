package search

import (
	"github.com/khanglvm/food-search/internal/food"
)

// MergeConfig defines the positional bonuses used to fuse local and remote
// result lists.
type MergeConfig struct {
	LocalBase  float64
	LocalStep  float64
	RemoteBase float64
	RemoteStep float64
	MaxResults int
}

// DefaultMergeConfig gives local hits 1000, 950, ... and remote hits 500,
// 490, ... and keeps 20.
var DefaultMergeConfig = MergeConfig{
	LocalBase:  1000,
	LocalStep:  50,
	RemoteBase: 500,
	RemoteStep: 10,
	MaxResults: 20,
}

// Merge fuses personal hits with remote or session hits for one query.
//
// Every local result outranks every remote result, each list keeps its own
// order, and an id present in both lists survives only as the local copy.
// A nil or empty remote list yields the local list unchanged.
func Merge(local, remote []food.Candidate, cfg MergeConfig) []food.Candidate {
	return Candidates(MergeScored(local, remote, cfg))
}

// MergeScored is Merge with the fused scores attached.
func MergeScored(local, remote []food.Candidate, cfg MergeConfig) []Result {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMergeConfig.MaxResults
	}

	// Shift the local range up when the list is long enough that its tail
	// would otherwise fall to the remote ceiling.
	localTop := cfg.LocalBase
	if floor := cfg.RemoteBase + cfg.LocalStep*float64(len(local)); floor > localTop {
		localTop = floor
	}

	seen := make(map[string]bool, len(local)+len(remote))
	fused := make([]Result, 0, len(local)+len(remote))

	for i, c := range local {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		fused = append(fused, Result{
			Candidate: c,
			Score:     localTop - cfg.LocalStep*float64(i),
		})
	}

	for i, c := range remote {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		fused = append(fused, Result{
			Candidate: c,
			Score:     cfg.RemoteBase - cfg.RemoteStep*float64(i),
		})
	}

	sortResults(fused)

	if len(fused) > cfg.MaxResults {
		fused = fused[:cfg.MaxResults]
	}
	return fused
}
