package analytics

import "github.com/hanko-field/schedule/internal/domain"

// DependencyEdge links a predecessor stage to the stage that depends on it.
type DependencyEdge struct {
	FromStageID string
	ToStageID   string
	// Delayed is set when either endpoint is delayed.
	Delayed bool
}

// ResolveDependencyEdges emits one edge per resolvable dependency, in stage then declaration order.
// References to stages missing from the list are skipped.
func ResolveDependencyEdges(stages []domain.ProductionStage) []DependencyEdge {
	index := domain.StageIndex(stages)
	edges := make([]DependencyEdge, 0, len(stages))
	for _, stage := range stages {
		for _, dep := range stage.Dependencies {
			i, ok := index[dep]
			if !ok {
				continue
			}
			from := stages[i]
			edges = append(edges, DependencyEdge{
				FromStageID: from.ID,
				ToStageID:   stage.ID,
				Delayed:     from.Status == domain.StageStatusDelayed || stage.Status == domain.StageStatusDelayed,
			})
		}
	}
	return edges
}
