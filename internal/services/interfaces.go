package services

import (
	"context"
	"time"

	"github.com/hanko-field/schedule/internal/analytics"
	"github.com/hanko-field/schedule/internal/domain"
)

// ScheduleService exposes workshop planning analytics to transport layers.
type ScheduleService interface {
	Analyze(ctx context.Context, cmd AnalyzeCommand) (ScheduleReport, error)
	AnalyzeStored(ctx context.Context, cmd AnalyzeStoredCommand) (ScheduleReport, error)
	ProjectConfidence(ctx context.Context, projectID string, now *time.Time) (ProjectConfidence, error)
	ProjectEdges(ctx context.Context, projectID string) ([]analytics.DependencyEdge, error)
	Ready(ctx context.Context) error
}

// ConflictPublisher delivers conflict alerts to downstream consumers.
type ConflictPublisher interface {
	// PublishConflictAlerts hands every alert to the transport before waiting on any of them
	// and returns one error per alert, positionally, nil when it was delivered.
	PublishConflictAlerts(ctx context.Context, alerts []ConflictAlert) []error
}

// AnalyzeCommand carries a caller supplied snapshot.
type AnalyzeCommand struct {
	Projects []domain.ProductionProject
	// Now overrides the service clock when set.
	Now *time.Time
}

// AnalyzeStoredCommand selects stored projects to analyse. An empty ProjectIDs means all of them.
type AnalyzeStoredCommand struct {
	ProjectIDs []string
	Now        *time.Time
}

// ScheduleReport is the result of one analysis run.
type ScheduleReport struct {
	ID          string
	GeneratedAt time.Time
	Workloads   []analytics.PartnerWorkload
	Projects    []ProjectSummary
	Totals      ReportTotals
}

// ProjectSummary pairs a project's identity with its per-project analytics.
type ProjectSummary struct {
	ProjectID  string
	Name       string
	Status     domain.ProjectStatus
	Priority   domain.ProjectPriority
	Confidence analytics.DeliveryConfidence
	Edges      []analytics.DependencyEdge
}

// ReportTotals summarises a report.
type ReportTotals struct {
	Projects       int
	Stages         int
	Partners       int
	Conflicts      int
	AtRiskProjects int
}

// ProjectConfidence is the delivery score of one stored project.
type ProjectConfidence struct {
	ProjectID   string
	EvaluatedAt time.Time
	analytics.DeliveryConfidence
}

// ConflictAlert is published once per detected conflict.
type ConflictAlert struct {
	AlertID      string    `json:"alertId"`
	ReportID     string    `json:"reportId"`
	Partner      string    `json:"partner"`
	OverlapStart time.Time `json:"overlapStart"`
	StageIDs     []string  `json:"stageIds"`
	ProjectIDs   []string  `json:"projectIds"`
	DetectedAt   time.Time `json:"detectedAt"`
}
