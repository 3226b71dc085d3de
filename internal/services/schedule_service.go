package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hanko-field/schedule/internal/analytics"
	"github.com/hanko-field/schedule/internal/domain"
	"github.com/hanko-field/schedule/internal/platform/requestctx"
	"github.com/hanko-field/schedule/internal/repositories"
)

const instrumentationName = "github.com/hanko-field/schedule/internal/services"

var (
	// ErrScheduleInvalidInput wraps snapshot validation failures.
	ErrScheduleInvalidInput = errors.New("schedule: invalid input")
	// ErrProjectNotFound indicates a requested project is not stored.
	ErrProjectNotFound = errors.New("schedule: project not found")
	// ErrScheduleUnavailable indicates the project store could not be reached.
	ErrScheduleUnavailable = errors.New("schedule: repository unavailable")
)

// ScheduleServiceDeps bundles collaborators required to construct the schedule service.
type ScheduleServiceDeps struct {
	Projects    repositories.ProjectRepository
	Publisher   ConflictPublisher
	Logger      *zap.Logger
	Clock       func() time.Time
	IDGenerator func() string
	Tracer      trace.Tracer
	Meter       metric.Meter
	// DisableCycleCheck skips dependency cycle detection during validation.
	DisableCycleCheck bool
}

type scheduleService struct {
	projects   repositories.ProjectRepository
	publisher  ConflictPublisher
	logger     *zap.Logger
	clock      func() time.Time
	newID      func() string
	tracer     trace.Tracer
	cycleCheck bool

	analyses           metric.Int64Counter
	conflicts          metric.Int64Counter
	validationFailures metric.Int64Counter
}

var _ ScheduleService = (*scheduleService)(nil)

// NewScheduleService wires the schedule service.
func NewScheduleService(deps ScheduleServiceDeps) (ScheduleService, error) {
	if deps.Projects == nil {
		return nil, errors.New("schedule service: project repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	meter := deps.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	analyses, err := meter.Int64Counter("schedule.analyses", metric.WithDescription("Completed schedule analyses"))
	if err != nil {
		return nil, fmt.Errorf("schedule service: create analyses counter: %w", err)
	}
	conflicts, err := meter.Int64Counter("schedule.conflicts", metric.WithDescription("Partner conflicts detected"))
	if err != nil {
		return nil, fmt.Errorf("schedule service: create conflicts counter: %w", err)
	}
	failures, err := meter.Int64Counter("schedule.validation_failures", metric.WithDescription("Snapshots rejected by validation"))
	if err != nil {
		return nil, fmt.Errorf("schedule service: create validation counter: %w", err)
	}

	return &scheduleService{
		projects:  deps.Projects,
		publisher: deps.Publisher,
		logger:    logger,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:              newID,
		tracer:             tracer,
		cycleCheck:         !deps.DisableCycleCheck,
		analyses:           analyses,
		conflicts:          conflicts,
		validationFailures: failures,
	}, nil
}

func (s *scheduleService) Analyze(ctx context.Context, cmd AnalyzeCommand) (ScheduleReport, error) {
	ctx, span := s.tracer.Start(ctx, "ScheduleService.Analyze")
	defer span.End()

	report, err := s.analyze(ctx, cmd.Projects, s.resolveNow(cmd.Now))
	recordSpanError(span, err)
	return report, err
}

func (s *scheduleService) AnalyzeStored(ctx context.Context, cmd AnalyzeStoredCommand) (ScheduleReport, error) {
	ctx, span := s.tracer.Start(ctx, "ScheduleService.AnalyzeStored")
	defer span.End()

	now := s.resolveNow(cmd.Now)
	projects, err := s.loadProjects(ctx, normaliseIDs(cmd.ProjectIDs))
	if err != nil {
		recordSpanError(span, err)
		return ScheduleReport{}, err
	}

	report, err := s.analyze(ctx, projects, now)
	recordSpanError(span, err)
	return report, err
}

func (s *scheduleService) ProjectConfidence(ctx context.Context, projectID string, now *time.Time) (ProjectConfidence, error) {
	ctx, span := s.tracer.Start(ctx, "ScheduleService.ProjectConfidence",
		trace.WithAttributes(attribute.String("schedule.project_id", projectID)))
	defer span.End()

	at := s.resolveNow(now)
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		recordSpanError(span, err)
		return ProjectConfidence{}, err
	}

	return ProjectConfidence{
		ProjectID:          project.ID,
		EvaluatedAt:        at,
		DeliveryConfidence: analytics.ScoreDelivery(project, at),
	}, nil
}

func (s *scheduleService) ProjectEdges(ctx context.Context, projectID string) ([]analytics.DependencyEdge, error) {
	ctx, span := s.tracer.Start(ctx, "ScheduleService.ProjectEdges",
		trace.WithAttributes(attribute.String("schedule.project_id", projectID)))
	defer span.End()

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return analytics.ResolveDependencyEdges(project.Stages), nil
}

func (s *scheduleService) Ready(ctx context.Context) error {
	if err := s.projects.Ping(ctx); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *scheduleService) analyze(ctx context.Context, projects []domain.ProductionProject, now time.Time) (ScheduleReport, error) {
	result, err := analytics.Analyze(projects, now, analytics.WithCycleCheck(s.cycleCheck))
	if err != nil {
		s.validationFailures.Add(ctx, 1)
		return ScheduleReport{}, fmt.Errorf("%w: %w", ErrScheduleInvalidInput, err)
	}

	report := ScheduleReport{
		ID:          s.newID(),
		GeneratedAt: now,
		Workloads:   result.Workloads,
		Projects:    make([]ProjectSummary, 0, len(projects)),
	}
	for i, project := range projects {
		pa := result.Projects[i]
		report.Projects = append(report.Projects, ProjectSummary{
			ProjectID:  project.ID,
			Name:       project.Name,
			Status:     project.Status,
			Priority:   project.Priority,
			Confidence: pa.Confidence,
			Edges:      pa.Edges,
		})
		report.Totals.Stages += len(project.Stages)
		if pa.Confidence.Color == analytics.RiskRed {
			report.Totals.AtRiskProjects++
		}
	}
	report.Totals.Projects = len(projects)
	report.Totals.Partners = len(result.Workloads)
	for _, w := range result.Workloads {
		report.Totals.Conflicts += len(w.Conflicts)
	}

	s.analyses.Add(ctx, 1)
	if report.Totals.Conflicts > 0 {
		s.conflicts.Add(ctx, int64(report.Totals.Conflicts))
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("schedule.report_id", report.ID),
		attribute.Int("schedule.projects", report.Totals.Projects),
		attribute.Int("schedule.conflicts", report.Totals.Conflicts),
	)

	logger := s.loggerFor(ctx)
	logger.Info("schedule analysed",
		zap.String("report_id", report.ID),
		zap.Time("now", now),
		zap.Int("projects", report.Totals.Projects),
		zap.Int("stages", report.Totals.Stages),
		zap.Int("partners", report.Totals.Partners),
		zap.Int("conflicts", report.Totals.Conflicts),
	)
	for _, w := range report.Workloads {
		if len(w.Conflicts) == 0 {
			continue
		}
		logger.Warn("partner has scheduling conflicts",
			zap.String("partner", w.Partner),
			zap.Int("conflicts", len(w.Conflicts)),
			zap.Float64("utilization", w.Metrics.Utilization),
		)
	}

	s.publishConflicts(ctx, report)
	return report, nil
}

func (s *scheduleService) publishConflicts(ctx context.Context, report ScheduleReport) {
	if s.publisher == nil || report.Totals.Conflicts == 0 {
		return
	}
	alerts := make([]ConflictAlert, 0, report.Totals.Conflicts)
	for _, w := range report.Workloads {
		for _, c := range w.Conflicts {
			alert := ConflictAlert{
				AlertID:      s.newID(),
				ReportID:     report.ID,
				Partner:      w.Partner,
				OverlapStart: c.Timestamp,
				StageIDs:     make([]string, 0, len(c.Stages)),
				ProjectIDs:   make([]string, 0, len(c.Stages)),
				DetectedAt:   report.GeneratedAt,
			}
			for _, st := range c.Stages {
				alert.StageIDs = append(alert.StageIDs, st.ID)
				alert.ProjectIDs = append(alert.ProjectIDs, st.ProjectID)
			}
			alerts = append(alerts, alert)
		}
	}

	errs := s.publisher.PublishConflictAlerts(ctx, alerts)
	logger := s.loggerFor(ctx)
	for i, alert := range alerts {
		var err error
		if i < len(errs) {
			err = errs[i]
		}
		if err != nil {
			logger.Warn("publish conflict alert failed",
				zap.String("alert_id", alert.AlertID),
				zap.String("partner", alert.Partner),
				zap.Error(err),
			)
		}
	}
}

func (s *scheduleService) loadProjects(ctx context.Context, ids []string) ([]domain.ProductionProject, error) {
	if len(ids) == 0 {
		projects, err := s.projects.List(ctx)
		if err != nil {
			return nil, s.mapRepositoryError(err)
		}
		return projects, nil
	}

	projects, err := s.projects.FindByIDs(ctx, ids)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	if len(projects) < len(ids) {
		found := make(map[string]struct{}, len(projects))
		for _, p := range projects {
			found[p.ID] = struct{}{}
		}
		var missing []string
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, strings.Join(missing, ", "))
	}
	return projects, nil
}

func (s *scheduleService) loadProject(ctx context.Context, projectID string) (domain.ProductionProject, error) {
	id := strings.TrimSpace(projectID)
	if id == "" {
		return domain.ProductionProject{}, fmt.Errorf("%w: project id is required", ErrScheduleInvalidInput)
	}
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return domain.ProductionProject{}, s.mapRepositoryError(err)
	}
	if err := domain.ValidateProjects([]domain.ProductionProject{project}, domain.WithCycleCheck(s.cycleCheck)); err != nil {
		s.validationFailures.Add(ctx, 1)
		return domain.ProductionProject{}, fmt.Errorf("%w: %w", ErrScheduleInvalidInput, err)
	}
	return project, nil
}

func (s *scheduleService) mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case repositories.IsNotFound(err):
		return fmt.Errorf("%w: %w", ErrProjectNotFound, err)
	case repositories.IsUnavailable(err):
		return fmt.Errorf("%w: %w", ErrScheduleUnavailable, err)
	default:
		return fmt.Errorf("schedule: load projects: %w", err)
	}
}

func (s *scheduleService) resolveNow(now *time.Time) time.Time {
	if now != nil && !now.IsZero() {
		return now.UTC()
	}
	return s.clock()
}

func (s *scheduleService) loggerFor(ctx context.Context) *zap.Logger {
	if logger := requestctx.Logger(ctx); logger != requestctx.NoopLogger() {
		return logger
	}
	return s.logger
}

func normaliseIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
