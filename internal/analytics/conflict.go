package analytics

import "time"

// Conflict groups upcoming stages of one partner whose windows overlap starting at Timestamp.
type Conflict struct {
	Timestamp time.Time
	Stages    []ScheduledStage
}

// detectConflicts compares the incoming stage with every previously added upcoming stage.
// Conflicts are keyed by the exact overlap start; overlaps that start at different instants
// stay separate entries even when they share a stage. Each entry lists a stage at most once,
// so its length is the number of distinct stages, not the number of overlapping pairs.
func detectConflicts(conflicts []Conflict, upcoming []ScheduledStage, incoming ScheduledStage) []Conflict {
	for _, existing := range upcoming {
		overlapStart := laterOf(existing.Start, incoming.Start)
		overlapEnd := earlierOf(existing.End, incoming.End)
		if overlapEnd.Sub(overlapStart) <= 0 {
			continue
		}

		idx := conflictAt(conflicts, overlapStart)
		if idx < 0 {
			conflicts = append(conflicts, Conflict{
				Timestamp: overlapStart,
				Stages:    []ScheduledStage{existing, incoming},
			})
			continue
		}
		conflicts[idx].Stages = appendUnique(conflicts[idx].Stages, existing)
		conflicts[idx].Stages = appendUnique(conflicts[idx].Stages, incoming)
	}
	return conflicts
}

func conflictAt(conflicts []Conflict, ts time.Time) int {
	for i := range conflicts {
		if conflicts[i].Timestamp.Equal(ts) {
			return i
		}
	}
	return -1
}

func appendUnique(stages []ScheduledStage, stage ScheduledStage) []ScheduledStage {
	key := stage.Key()
	for _, s := range stages {
		if s.Key() == key {
			return stages
		}
	}
	return append(stages, stage)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
