package events

import (
	"slices"
	"time"

	"github.com/cwbudde/algo-cbc/search/trigger"
)

// ClusterTriggers merges triggers from different templates or segments. After
// sorting by time, triggers whose time gap is at most window chain together
// and only the one with the highest rank survives (earliest on ties). The
// input slice is not modified.
func ClusterTriggers(ts []trigger.Trigger, window time.Duration, rank func(trigger.Trigger) float64) []trigger.Trigger {
	if len(ts) == 0 {
		return nil
	}
	if rank == nil {
		rank = trigger.Trigger.NewSNR
	}

	sorted := slices.Clone(ts)
	trigger.SortByTime(sorted)

	win := window.Seconds()
	out := make([]trigger.Trigger, 0, len(sorted))
	best := sorted[0]
	bestRank := rank(best)
	last := best.Time

	for _, t := range sorted[1:] {
		if t.Time-last <= win {
			if r := rank(t); r > bestRank {
				best, bestRank = t, r
			}
			last = t.Time
			continue
		}
		out = append(out, best)
		best, bestRank, last = t, rank(t), t.Time
	}
	return append(out, best)
}
