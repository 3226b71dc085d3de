package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanko-field/schedule/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

func stage(id, partner string, status domain.StageStatus, start, end time.Time) domain.ProductionStage {
	return domain.ProductionStage{ID: id, Name: id, Status: status, Start: start, End: end, Partner: partner}
}

func project(id string, stages ...domain.ProductionStage) domain.ProductionProject {
	p := domain.ProductionProject{ID: id, Name: id, Status: domain.ProjectStatusOnTrack, Priority: domain.ProjectPriorityMedium, Stages: stages}
	if len(stages) > 0 {
		p.Start = stages[0].Start
		p.End = stages[0].End
		for _, s := range stages {
			if s.Start.Before(p.Start) {
				p.Start = s.Start
			}
			if s.End.After(p.End) {
				p.End = s.End
			}
		}
	}
	return p
}

func findWorkload(t *testing.T, workloads []PartnerWorkload, partner string) PartnerWorkload {
	t.Helper()
	for _, w := range workloads {
		if w.Partner == partner {
			return w
		}
	}
	t.Fatalf("workload for %s not found", partner)
	return PartnerWorkload{}
}

func TestAnalyzeWorkloadsBucketsStages(t *testing.T) {
	now := day(10)
	projects := []domain.ProductionProject{
		project("ring",
			stage("past", "Aiko", domain.StageStatusCompleted, day(1), day(3)),
			stage("current", "Aiko", domain.StageStatusInProgress, day(9), day(12)),
			stage("upcoming", "Aiko", domain.StageStatusPending, day(14), day(15)),
		),
		project("pendant",
			stage("cast", "Ben", domain.StageStatusPending, day(11), day(13)),
			stage("edge", "Aiko", domain.StageStatusPending, day(10), day(10)),
		),
	}

	workloads, err := AnalyzeWorkloads(projects, now)
	require.NoError(t, err)
	require.Len(t, workloads, 2)
	require.Equal(t, "Aiko", workloads[0].Partner)
	require.Equal(t, "Ben", workloads[1].Partner)

	aiko := workloads[0]
	require.Len(t, aiko.CurrentStages, 2)
	require.Equal(t, "current", aiko.CurrentStages[0].ID)
	require.Equal(t, "edge", aiko.CurrentStages[1].ID)
	require.Equal(t, "pendant", aiko.CurrentStages[1].ProjectID)
	require.Len(t, aiko.UpcomingStages, 1)
	require.Equal(t, "upcoming", aiko.UpcomingStages[0].ID)
	// 48h past + 72h current + 24h upcoming + 0h zero-length stage.
	require.InDelta(t, 144, aiko.TotalHours, 1e-9)

	ben := workloads[1]
	require.Empty(t, ben.CurrentStages)
	require.Len(t, ben.UpcomingStages, 1)
}

func TestAnalyzeWorkloadsRejectsMissingPartner(t *testing.T) {
	projects := []domain.ProductionProject{
		project("ring", stage("cad", "", domain.StageStatusPending, day(1), day(2))),
	}
	_, err := AnalyzeWorkloads(projects, day(1))
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrInvalidSchedule))
}

func TestAnalyzeWorkloadsRejectsStageWithoutStart(t *testing.T) {
	cad := stage("cad", "Aiko", domain.StageStatusPending, time.Time{}, day(5))
	p := project("ring", cad)
	p.Start = day(1)

	workloads, err := AnalyzeWorkloads([]domain.ProductionProject{p}, day(1))
	require.ErrorIs(t, err, domain.ErrInvalidSchedule)
	require.Nil(t, workloads)
}

func TestAggregateWorkloadsRejectsMissingPartner(t *testing.T) {
	projects := []domain.ProductionProject{
		project("ring", stage("cad", " ", domain.StageStatusPending, day(1), day(2))),
	}
	_, err := aggregateWorkloads(projects, day(1))
	require.ErrorIs(t, err, ErrMissingPartner)
}

func TestConflictDetectorReportsOverlap(t *testing.T) {
	projects := []domain.ProductionProject{
		project("ring",
			stage("a", "Bob", domain.StageStatusPending, day(4), day(6)),
			stage("b", "Bob", domain.StageStatusPending, day(5), day(8)),
		),
	}

	workloads, err := AnalyzeWorkloads(projects, day(1))
	require.NoError(t, err)

	bob := findWorkload(t, workloads, "Bob")
	require.Len(t, bob.Conflicts, 1)
	require.True(t, bob.Conflicts[0].Timestamp.Equal(day(5)))
	require.Len(t, bob.Conflicts[0].Stages, 2)
	require.Equal(t, "a", bob.Conflicts[0].Stages[0].ID)
	require.Equal(t, "b", bob.Conflicts[0].Stages[1].ID)
}

func TestConflictDetectorIgnoresTouchingWindows(t *testing.T) {
	projects := []domain.ProductionProject{
		project("ring",
			stage("a", "Bob", domain.StageStatusPending, day(4), day(6)),
			stage("b", "Bob", domain.StageStatusPending, day(6), day(8)),
		),
	}
	workloads, err := AnalyzeWorkloads(projects, day(1))
	require.NoError(t, err)
	require.Empty(t, findWorkload(t, workloads, "Bob").Conflicts)
}

func TestConflictDetectorOnlyConsidersUpcomingStages(t *testing.T) {
	projects := []domain.ProductionProject{
		project("ring",
			stage("running", "Bob", domain.StageStatusInProgress, day(1), day(9)),
			stage("next", "Bob", domain.StageStatusPending, day(5), day(8)),
		),
	}
	workloads, err := AnalyzeWorkloads(projects, day(2))
	require.NoError(t, err)
	require.Empty(t, findWorkload(t, workloads, "Bob").Conflicts)
}

func TestConflictDetectorGroupsByExactOverlapStart(t *testing.T) {
	projects := []domain.ProductionProject{
		project("ring",
			stage("a", "Bob", domain.StageStatusPending, day(4), day(10)),
			stage("b", "Bob", domain.StageStatusPending, day(5), day(7)),
			stage("c", "Bob", domain.StageStatusPending, day(5), day(6)),
			stage("d", "Bob", domain.StageStatusPending, day(8), day(9)),
		),
	}
	workloads, err := AnalyzeWorkloads(projects, day(1))
	require.NoError(t, err)

	conflicts := findWorkload(t, workloads, "Bob").Conflicts
	require.Len(t, conflicts, 2)

	require.True(t, conflicts[0].Timestamp.Equal(day(5)))
	ids := make([]string, 0, len(conflicts[0].Stages))
	for _, s := range conflicts[0].Stages {
		ids = append(ids, s.ID)
	}
	require.Equal(t, []string{"a", "b", "c"}, ids)

	// a overlaps d from day 8: a separate entry even though a already sits in the day 5 group.
	require.True(t, conflicts[1].Timestamp.Equal(day(8)))
	require.Len(t, conflicts[1].Stages, 2)
}

func TestConflictDetectorSymmetricUnderInsertionOrder(t *testing.T) {
	a := stage("a", "Bob", domain.StageStatusPending, day(4), day(6))
	b := stage("b", "Bob", domain.StageStatusPending, day(5), day(8))

	for _, order := range [][]domain.ProductionStage{{a, b}, {b, a}} {
		workloads, err := AnalyzeWorkloads([]domain.ProductionProject{project("ring", order...)}, day(1))
		require.NoError(t, err)
		conflicts := findWorkload(t, workloads, "Bob").Conflicts
		require.Len(t, conflicts, 1)
		keys := map[string]bool{}
		for _, s := range conflicts[0].Stages {
			keys[s.ID] = true
		}
		require.True(t, keys["a"] && keys["b"])
	}
}

func TestConflictEntriesListEachStageOnce(t *testing.T) {
	projects := []domain.ProductionProject{
		project("ring",
			stage("a", "Bob", domain.StageStatusPending, day(5), day(9)),
			stage("b", "Bob", domain.StageStatusPending, day(5), day(8)),
			stage("c", "Bob", domain.StageStatusPending, day(5), day(7)),
		),
	}
	workloads, err := AnalyzeWorkloads(projects, day(1))
	require.NoError(t, err)

	conflicts := findWorkload(t, workloads, "Bob").Conflicts
	require.Len(t, conflicts, 1)
	// three overlapping pairs, three distinct stages
	require.Len(t, conflicts[0].Stages, 3)
}

func TestAnalyzeWorkloadsRejectsDuplicateProjectIDs(t *testing.T) {
	projects := []domain.ProductionProject{
		project("ring", stage("a", "Bob", domain.StageStatusPending, day(4), day(6))),
		project("ring", stage("a", "Bob", domain.StageStatusPending, day(5), day(7))),
	}
	_, err := AnalyzeWorkloads(projects, day(1))
	require.ErrorIs(t, err, domain.ErrInvalidSchedule)
}

func TestConflictsAcrossProjectsKeepStageIdentity(t *testing.T) {
	projects := []domain.ProductionProject{
		project("ring", stage("polish", "Bob", domain.StageStatusPending, day(4), day(6))),
		project("brooch", stage("polish", "Bob", domain.StageStatusPending, day(5), day(7))),
	}
	workloads, err := AnalyzeWorkloads(projects, day(1))
	require.NoError(t, err)
	conflicts := findWorkload(t, workloads, "Bob").Conflicts
	require.Len(t, conflicts, 1)
	require.Equal(t, "ring/polish", conflicts[0].Stages[0].Key())
	require.Equal(t, "brooch/polish", conflicts[0].Stages[1].Key())
}

func TestComputeMetrics(t *testing.T) {
	now := day(10)
	late := day(13)
	projects := []domain.ProductionProject{
		project("ring",
			func() domain.ProductionStage {
				s := stage("done", "Aiko", domain.StageStatusCompleted, day(8), day(11))
				s.Cost = ptr(300)
				s.Quality = ptr(9)
				return s
			}(),
			func() domain.ProductionStage {
				s := stage("late", "Aiko", domain.StageStatusDelayed, day(9), day(12))
				s.ActualEnd = &late
				s.Cost = ptr(100)
				s.Quality = ptr(6)
				return s
			}(),
			stage("late-no-actual", "Aiko", domain.StageStatusDelayed, day(9), day(12)),
			stage("working", "Aiko", domain.StageStatusInProgress, day(10), day(14)),
			stage("next", "Aiko", domain.StageStatusPending, day(15), day(16)),
		),
	}

	workloads, err := AnalyzeWorkloads(projects, now)
	require.NoError(t, err)
	m := findWorkload(t, workloads, "Aiko").Metrics

	require.InDelta(t, 25, m.Efficiency, 1e-9)
	require.InDelta(t, 50, m.OnTimeDelivery, 1e-9)
	require.InDelta(t, 12, m.AverageDelay, 1e-9)
	require.InDelta(t, 80, m.AverageCost, 1e-9)
	require.InDelta(t, 3, m.AverageQuality, 1e-9)
	// 72 + 72 + 72 + 96 + 24 = 336 hours, capped.
	require.InDelta(t, 100, m.Utilization, 1e-9)
}

func TestComputeMetricsWithoutCurrentStages(t *testing.T) {
	w := PartnerWorkload{
		Partner:        "Ben",
		UpcomingStages: []ScheduledStage{{ProjectID: "ring", ProductionStage: stage("x", "Ben", domain.StageStatusPending, day(5), day(6))}},
		TotalHours:     24,
	}
	m := ComputeMetrics(w)
	require.Zero(t, m.Efficiency)
	require.Zero(t, m.OnTimeDelivery)
	require.Zero(t, m.AverageDelay)
	require.False(t, math.IsNaN(m.Efficiency))
	require.InDelta(t, 12, m.Utilization, 1e-9)
}

func TestComputeMetricsEmptyWorkload(t *testing.T) {
	m := ComputeMetrics(PartnerWorkload{Partner: "Nobody"})
	require.Equal(t, Metrics{}, m)
}

func TestComputeMetricsMissingCostCountsAsZero(t *testing.T) {
	priced := stage("priced", "Ben", domain.StageStatusPending, day(5), day(6))
	priced.Cost = ptr(50)
	priced.Quality = ptr(8)
	unpriced := stage("unpriced", "Ben", domain.StageStatusPending, day(7), day(8))

	m := ComputeMetrics(PartnerWorkload{
		Partner: "Ben",
		UpcomingStages: []ScheduledStage{
			{ProjectID: "p", ProductionStage: priced},
			{ProjectID: "p", ProductionStage: unpriced},
		},
	})
	require.InDelta(t, 25, m.AverageCost, 1e-9)
	require.InDelta(t, 4, m.AverageQuality, 1e-9)
}

func TestUtilizationCap(t *testing.T) {
	tests := []struct {
		hours float64
		want  float64
	}{
		{hours: 0, want: 0},
		{hours: 100, want: 50},
		{hours: 200, want: 100},
		{hours: 1000, want: 100},
	}
	for _, tc := range tests {
		m := ComputeMetrics(PartnerWorkload{TotalHours: tc.hours})
		require.InDelta(t, tc.want, m.Utilization, 1e-9, "hours=%v", tc.hours)
	}
}

func TestScoreDelivery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stages []domain.ProductionStage
		now    time.Time
		score  float64
		color  RiskColor
		reason string
	}{
		{
			name: "all completed after end",
			stages: []domain.ProductionStage{
				stage("a", "Aiko", domain.StageStatusCompleted, day(1), day(2)),
				stage("b", "Aiko", domain.StageStatusCompleted, day(2), day(3)),
				stage("c", "Aiko", domain.StageStatusCompleted, day(3), day(4)),
			},
			now:    day(20),
			score:  100,
			color:  RiskGreen,
			reason: "On track for delivery",
		},
		{
			name: "one delayed and one overdue",
			stages: []domain.ProductionStage{
				stage("a", "Aiko", domain.StageStatusDelayed, day(10), day(12)),
				stage("b", "Aiko", domain.StageStatusInProgress, day(1), day(3)),
				stage("c", "Aiko", domain.StageStatusPending, day(12), day(14)),
			},
			now:    day(5),
			score:  73,
			color:  RiskYellow,
			reason: "Potential delays detected",
		},
		{
			name: "delayed and overdue stage is penalised twice",
			stages: []domain.ProductionStage{
				stage("a", "Aiko", domain.StageStatusDelayed, day(1), day(2)),
				stage("b", "Aiko", domain.StageStatusCompleted, day(2), day(3)),
			},
			now: day(5),
			// other = 2 - 1 - 1 - 1 = -1 adds 2 back.
			score:  77,
			color:  RiskYellow,
			reason: "Potential delays detected",
		},
		{
			name: "clamped at zero",
			stages: []domain.ProductionStage{
				stage("a", "Aiko", domain.StageStatusBlocked, day(1), day(2)),
				stage("b", "Aiko", domain.StageStatusBlocked, day(1), day(2)),
				stage("c", "Aiko", domain.StageStatusBlocked, day(1), day(2)),
				stage("d", "Aiko", domain.StageStatusBlocked, day(1), day(2)),
				stage("e", "Aiko", domain.StageStatusBlocked, day(1), day(2)),
				stage("f", "Aiko", domain.StageStatusBlocked, day(1), day(2)),
				stage("g", "Aiko", domain.StageStatusBlocked, day(1), day(2)),
			},
			now:    day(9),
			score:  0,
			color:  RiskRed,
			reason: "Likely delays - immediate action recommended",
		},
		{
			name:   "no stages",
			now:    day(1),
			score:  100,
			color:  RiskGreen,
			reason: "On track for delivery",
		},
		{
			name: "pending stages cost two points each",
			stages: []domain.ProductionStage{
				stage("a", "Aiko", domain.StageStatusPending, day(10), day(11)),
				stage("b", "Aiko", domain.StageStatusPending, day(11), day(12)),
				stage("c", "Aiko", domain.StageStatusPending, day(12), day(13)),
				stage("d", "Aiko", domain.StageStatusPending, day(13), day(14)),
				stage("e", "Aiko", domain.StageStatusPending, day(14), day(15)),
				stage("f", "Aiko", domain.StageStatusPending, day(15), day(16)),
			},
			now:    day(1),
			score:  88,
			color:  RiskYellow,
			reason: "Potential delays detected",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ScoreDelivery(project("p", tc.stages...), tc.now)
			require.Equal(t, tc.score, got.Score)
			require.Equal(t, tc.color, got.Color)
			require.Equal(t, tc.reason, got.Reason)
		})
	}
}

func TestColorForScoreBoundaries(t *testing.T) {
	require.Equal(t, RiskRed, colorForScore(69))
	require.Equal(t, RiskYellow, colorForScore(70))
	require.Equal(t, RiskYellow, colorForScore(89))
	require.Equal(t, RiskGreen, colorForScore(90))
	require.Equal(t, RiskGreen, colorForScore(100))
}

func TestResolveDependencyEdges(t *testing.T) {
	design := stage("design", "Aiko", domain.StageStatusCompleted, day(1), day(2))
	cad := stage("cad", "Ben", domain.StageStatusDelayed, day(2), day(4))
	cad.Dependencies = []string{"design", "not-loaded"}
	casting := stage("casting", "Chie", domain.StageStatusPending, day(4), day(6))
	casting.Dependencies = []string{"cad"}
	setting := stage("setting", "Chie", domain.StageStatusPending, day(6), day(7))
	setting.Dependencies = []string{"design"}

	edges := ResolveDependencyEdges([]domain.ProductionStage{design, cad, casting, setting})
	require.Equal(t, []DependencyEdge{
		{FromStageID: "design", ToStageID: "cad", Delayed: true},
		{FromStageID: "cad", ToStageID: "casting", Delayed: true},
		{FromStageID: "design", ToStageID: "setting", Delayed: false},
	}, edges)

	require.Empty(t, ResolveDependencyEdges(nil))
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	now := day(5)
	projects := []domain.ProductionProject{
		project("ring",
			stage("design", "Aiko", domain.StageStatusCompleted, day(1), day(3)),
			stage("cad", "Ben", domain.StageStatusInProgress, day(4), day(6)),
			stage("cast", "Ben", domain.StageStatusPending, day(7), day(9)),
		),
		project("brooch",
			stage("design", "Aiko", domain.StageStatusDelayed, day(4), day(6)),
			stage("cast", "Ben", domain.StageStatusPending, day(8), day(10)),
		),
	}

	first, err := Analyze(projects, now)
	require.NoError(t, err)
	second, err := Analyze(projects, now)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("analysis not deterministic (-first +second):\n%s", diff)
	}
	require.Len(t, first.Projects, 2)
	require.Len(t, findWorkload(t, first.Workloads, "Ben").Conflicts, 1)
}

func TestAnalyzeFailsBeforeProducingResults(t *testing.T) {
	cyclic := project("ring",
		stage("a", "Aiko", domain.StageStatusPending, day(1), day(2)),
		stage("b", "Aiko", domain.StageStatusPending, day(2), day(3)),
	)
	cyclic.Stages[0].Dependencies = []string{"b"}
	cyclic.Stages[1].Dependencies = []string{"a"}

	got, err := Analyze([]domain.ProductionProject{cyclic}, day(1))
	require.ErrorIs(t, err, domain.ErrInvalidSchedule)
	require.Equal(t, Analysis{}, got)

	_, err = Analyze([]domain.ProductionProject{cyclic}, day(1), WithCycleCheck(false))
	require.NoError(t, err)
}
