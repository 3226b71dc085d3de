package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hanko-field/schedule/internal/domain"
)

// ErrMissingPartner is returned when a stage has no responsible partner.
var ErrMissingPartner = errors.New("analytics: stage partner is required")

// ScheduledStage is a stage annotated with the project that owns it.
type ScheduledStage struct {
	ProjectID string
	domain.ProductionStage
}

// Key identifies the stage across projects.
func (s ScheduledStage) Key() string {
	return s.ProjectID + "/" + s.ID
}

// PartnerWorkload is the derived view of one partner's load for a single analysis run.
type PartnerWorkload struct {
	Partner        string
	CurrentStages  []ScheduledStage
	UpcomingStages []ScheduledStage
	TotalHours     float64
	Conflicts      []Conflict
	Metrics        Metrics
}

// HoursBetween returns the signed number of hours from start to end.
func HoursBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// AnalyzeWorkloads validates the snapshot and returns one workload per partner in first-seen order.
func AnalyzeWorkloads(projects []domain.ProductionProject, now time.Time) ([]PartnerWorkload, error) {
	if err := domain.ValidateProjects(projects, domain.WithCycleCheck(false)); err != nil {
		return nil, err
	}
	return aggregateWorkloads(projects, now)
}

// aggregateWorkloads folds every stage into its partner's workload. Conflicts are detected
// incrementally as upcoming stages are added; metrics are computed once the buckets are final.
func aggregateWorkloads(projects []domain.ProductionProject, now time.Time) ([]PartnerWorkload, error) {
	var workloads []PartnerWorkload
	byPartner := make(map[string]int)

	for _, project := range projects {
		for _, stage := range project.Stages {
			partner := strings.TrimSpace(stage.Partner)
			if partner == "" {
				return nil, fmt.Errorf("%w: project %q stage %q", ErrMissingPartner, project.ID, stage.ID)
			}

			idx, ok := byPartner[partner]
			if !ok {
				idx = len(workloads)
				byPartner[partner] = idx
				workloads = append(workloads, PartnerWorkload{Partner: partner})
			}
			workload := &workloads[idx]

			scheduled := ScheduledStage{ProjectID: project.ID, ProductionStage: stage}
			switch {
			case !stage.Start.After(now) && !stage.End.Before(now):
				workload.CurrentStages = append(workload.CurrentStages, scheduled)
			case stage.Start.After(now):
				workload.Conflicts = detectConflicts(workload.Conflicts, workload.UpcomingStages, scheduled)
				workload.UpcomingStages = append(workload.UpcomingStages, scheduled)
			}
			workload.TotalHours += HoursBetween(stage.Start, stage.End)
		}
	}

	for i := range workloads {
		workloads[i].Metrics = ComputeMetrics(workloads[i])
	}
	return workloads, nil
}
