package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validProject() ProductionProject {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return ProductionProject{
		ID:       "proj-1",
		Name:     "Engagement ring",
		Status:   ProjectStatusOnTrack,
		Start:    start,
		End:      start.Add(10 * 24 * time.Hour),
		Progress: 40,
		Priority: ProjectPriorityHigh,
		Stages: []ProductionStage{
			{ID: "design", Name: "Design", Order: 1, Status: StageStatusCompleted, Start: start, End: start.Add(48 * time.Hour), Partner: "Aiko"},
			{ID: "cad", Name: "CAD", Order: 2, Status: StageStatusInProgress, Dependencies: []string{"design"}, Start: start.Add(48 * time.Hour), End: start.Add(96 * time.Hour), Partner: "Ben"},
		},
	}
}

func TestValidateProjectsAcceptsValidSnapshot(t *testing.T) {
	require.NoError(t, ValidateProjects([]ProductionProject{validProject()}))
	require.NoError(t, ValidateProjects(nil))
}

func TestValidateProjectsAllowsUnknownDependency(t *testing.T) {
	project := validProject()
	project.Stages[1].Dependencies = append(project.Stages[1].Dependencies, "not-loaded-yet")
	require.NoError(t, ValidateProjects([]ProductionProject{project}))
}

func TestValidateProjectsRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *ProductionProject)
		field  string
	}{
		{
			name:   "missing partner",
			mutate: func(p *ProductionProject) { p.Stages[0].Partner = "  " },
			field:  "partner",
		},
		{
			name: "stage start after end",
			mutate: func(p *ProductionProject) {
				p.Stages[1].Start = p.Stages[1].End.Add(time.Hour)
			},
			field: "start",
		},
		{
			name:   "project start after end",
			mutate: func(p *ProductionProject) { p.End = p.Start.Add(-time.Hour) },
			field:  "start",
		},
		{
			name:   "progress out of range",
			mutate: func(p *ProductionProject) { p.Progress = 120 },
			field:  "progress",
		},
		{
			name:   "unknown stage status",
			mutate: func(p *ProductionProject) { p.Stages[0].Status = "paused" },
			field:  "status",
		},
		{
			name: "quality out of range",
			mutate: func(p *ProductionProject) {
				q := 11.0
				p.Stages[0].Quality = &q
			},
			field: "quality",
		},
		{
			name:   "duplicate stage id",
			mutate: func(p *ProductionProject) { p.Stages[1].ID = "design" },
			field:  "id",
		},
		{
			name:   "missing stage start",
			mutate: func(p *ProductionProject) { p.Stages[1].Start = time.Time{} },
			field:  "start",
		},
		{
			name:   "missing stage end",
			mutate: func(p *ProductionProject) { p.Stages[0].End = time.Time{} },
			field:  "end",
		},
		{
			name:   "missing project start",
			mutate: func(p *ProductionProject) { p.Start = time.Time{} },
			field:  "start",
		},
		{
			name:   "missing project end",
			mutate: func(p *ProductionProject) { p.End = time.Time{} },
			field:  "end",
		},
		{
			name:   "missing project status",
			mutate: func(p *ProductionProject) { p.Status = "" },
			field:  "status",
		},
		{
			name:   "missing project priority",
			mutate: func(p *ProductionProject) { p.Priority = "" },
			field:  "priority",
		},
		{
			name:   "self dependency",
			mutate: func(p *ProductionProject) { p.Stages[0].Dependencies = []string{"design"} },
			field:  "dependencies",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			project := validProject()
			tc.mutate(&project)

			err := ValidateProjects([]ProductionProject{project})
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidSchedule))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, 0)
			for _, p := range verr.Problems() {
				fields = append(fields, p.Field)
			}
			require.Contains(t, fields, tc.field)
		})
	}
}

func TestValidateProjectsDetectsCycle(t *testing.T) {
	project := validProject()
	project.Stages[0].Dependencies = []string{"cad"}

	err := ValidateProjects([]ProductionProject{project})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "form a cycle"), err.Error())

	require.NoError(t, ValidateProjects([]ProductionProject{project}, WithCycleCheck(false)))
}

func TestValidateProjectsCollectsEveryProblem(t *testing.T) {
	first := validProject()
	first.Stages[0].Partner = ""
	second := validProject()
	second.ID = ""
	second.Stages[1].Start = second.Stages[1].End.Add(time.Minute)

	err := ValidateProjects([]ProductionProject{first, second})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Problems(), 3)
	require.Equal(t, "#1", verr.Problems()[1].ProjectID)
}

func TestValidateProjectsReportsMissingDatesAsRequired(t *testing.T) {
	project := validProject()
	project.Stages[0].Start = time.Time{}

	err := ValidateProjects([]ProductionProject{project})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []Problem{
		{ProjectID: "proj-1", StageID: "design", Field: "start", Reason: "is required"},
	}, verr.Problems())
}

func TestValidateProjectsRejectsDuplicateProjectIDs(t *testing.T) {
	first := validProject()
	second := validProject()
	second.Name = "Second ring"

	err := ValidateProjects([]ProductionProject{first, second})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []Problem{
		{ProjectID: "proj-1", Field: "id", Reason: "is duplicated within the snapshot"},
	}, verr.Problems())
}
