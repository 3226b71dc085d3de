package analytics

import (
	"time"

	"github.com/hanko-field/schedule/internal/domain"
)

// Analysis bundles every derived view computed from one snapshot at one instant.
type Analysis struct {
	Now       time.Time
	Workloads []PartnerWorkload
	Projects  []ProjectAnalysis
}

// ProjectAnalysis carries the per-project results that do not depend on partner aggregation.
type ProjectAnalysis struct {
	ProjectID  string
	Confidence DeliveryConfidence
	Edges      []DependencyEdge
}

// Option customises Analyze.
type Option func(*options)

type options struct {
	cycleCheck bool
}

// WithCycleCheck toggles the dependency cycle check performed during validation.
func WithCycleCheck(enabled bool) Option {
	return func(o *options) {
		o.cycleCheck = enabled
	}
}

// Analyze validates the snapshot once and runs every component against the same now.
// Nothing is returned unless validation succeeds.
func Analyze(projects []domain.ProductionProject, now time.Time, opts ...Option) (Analysis, error) {
	o := options{cycleCheck: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if err := domain.ValidateProjects(projects, domain.WithCycleCheck(o.cycleCheck)); err != nil {
		return Analysis{}, err
	}

	workloads, err := aggregateWorkloads(projects, now)
	if err != nil {
		return Analysis{}, err
	}

	perProject := make([]ProjectAnalysis, 0, len(projects))
	for _, project := range projects {
		perProject = append(perProject, ProjectAnalysis{
			ProjectID:  project.ID,
			Confidence: ScoreDelivery(project, now),
			Edges:      ResolveDependencyEdges(project.Stages),
		})
	}

	return Analysis{
		Now:       now,
		Workloads: workloads,
		Projects:  perProject,
	}, nil
}
