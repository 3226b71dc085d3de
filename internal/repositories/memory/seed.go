package memory

import (
	"time"

	"github.com/hanko-field/schedule/internal/domain"
)

// SampleProjects returns a small workshop snapshot anchored at base. Stages run
// through design, CAD, casting, stone setting, polishing and QC; two polishing
// jobs for the same craftsman overlap on purpose so conflict detection has data.
func SampleProjects(base time.Time) []domain.ProductionProject {
	base = base.UTC().Truncate(time.Hour)
	at := func(hours int) time.Time { return base.Add(time.Duration(hours) * time.Hour) }
	f := func(v float64) *float64 { return &v }
	done := func(hours int) *time.Time { t := at(hours); return &t }

	return []domain.ProductionProject{
		{
			ID:          "HF-1052",
			Name:        "Platinum engagement ring",
			Status:      domain.ProjectStatusOnTrack,
			Start:       at(-72),
			End:         at(96),
			Progress:    45,
			Priority:    domain.ProjectPriorityHigh,
			TeamMembers: []string{"masuda", "kimura", "harada", "miyagawa"},
			Stages: []domain.ProductionStage{
				{ID: "design", Name: "Design", Order: 1, EstimatedDuration: 1, ActualDuration: f(1), Status: domain.StageStatusCompleted,
					Assignees: []string{"masuda"}, Start: at(-72), End: at(-48), ActualEnd: done(-50), Cost: f(80), Quality: f(9), Progress: f(100), Partner: "masuda"},
				{ID: "cad", Name: "CAD", Order: 2, EstimatedDuration: 1, Status: domain.StageStatusInProgress, Dependencies: []string{"design"},
					Assignees: []string{"kimura"}, Start: at(-8), End: at(16), Cost: f(120), Progress: f(60), Partner: "kimura"},
				{ID: "casting", Name: "Casting", Order: 3, EstimatedDuration: 1, Status: domain.StageStatusPending, Dependencies: []string{"cad"},
					Start: at(24), End: at(40), Partner: "kimura"},
				{ID: "polishing", Name: "Polishing", Order: 4, EstimatedDuration: 1, Status: domain.StageStatusPending, Dependencies: []string{"casting"},
					Start: at(48), End: at(64), Partner: "harada"},
				{ID: "qc", Name: "QC", Order: 5, EstimatedDuration: 0.5, Status: domain.StageStatusPending, Dependencies: []string{"polishing"},
					Start: at(72), End: at(80), Partner: "miyagawa"},
			},
		},
		{
			ID:           "HF-1041",
			Name:         "Sapphire pendant",
			Status:       domain.ProjectStatusAtRisk,
			Start:        at(-120),
			End:          at(72),
			Progress:     55,
			Priority:     domain.ProjectPriorityCritical,
			Dependencies: []string{"HF-1052"},
			TeamMembers:  []string{"kitahara", "tsuchiya", "harada"},
			Stages: []domain.ProductionStage{
				{ID: "design", Name: "Design", Order: 1, EstimatedDuration: 1, ActualDuration: f(2), Status: domain.StageStatusCompleted,
					Start: at(-120), End: at(-96), ActualEnd: done(-80), Cost: f(90), Quality: f(8), Progress: f(100), Partner: "kitahara"},
				{ID: "stone-setting", Name: "Stone Setting", Order: 2, EstimatedDuration: 2, Status: domain.StageStatusDelayed, Dependencies: []string{"design"},
					Start: at(-30), End: at(6), Cost: f(200), Progress: f(70), Partner: "tsuchiya"},
				{ID: "polishing", Name: "Polishing", Order: 3, EstimatedDuration: 1, Status: domain.StageStatusBlocked, Dependencies: []string{"stone-setting"},
					Start: at(52), End: at(70), Partner: "harada"},
				{ID: "qc", Name: "QC", Order: 4, EstimatedDuration: 0.5, Status: domain.StageStatusPending, Dependencies: []string{"polishing"},
					Start: at(70), End: at(72), Partner: "miyagawa"},
			},
		},
		{
			ID:       "HF-1025",
			Name:     "Signet ring engraving",
			Status:   domain.ProjectStatusCompleted,
			Start:    at(-240),
			End:      at(-24),
			Progress: 100,
			Priority: domain.ProjectPriorityMedium,
			Stages: []domain.ProductionStage{
				{ID: "cad", Name: "CAD", Order: 1, EstimatedDuration: 2, ActualDuration: f(2), Status: domain.StageStatusCompleted,
					Start: at(-240), End: at(-192), ActualEnd: done(-192), Cost: f(150), Quality: f(10), Progress: f(100), Partner: "kimura"},
				{ID: "qc", Name: "QC", Order: 2, EstimatedDuration: 0.5, ActualDuration: f(0.5), Status: domain.StageStatusCompleted, Dependencies: []string{"cad"},
					Start: at(-48), End: at(-36), ActualEnd: done(-30), Cost: f(40), Quality: f(9), Progress: f(100), Partner: "miyagawa"},
			},
		},
	}
}
