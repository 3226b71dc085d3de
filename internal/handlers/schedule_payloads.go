package handlers

import (
	"time"

	"github.com/hanko-field/schedule/internal/analytics"
	"github.com/hanko-field/schedule/internal/domain"
	"github.com/hanko-field/schedule/internal/services"
)

type analyzeRequest struct {
	Projects []projectPayload `json:"projects"`
	Now      *time.Time       `json:"now,omitempty"`
}

type projectPayload struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Status       string         `json:"status"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      time.Time      `json:"end_date"`
	Progress     float64        `json:"progress"`
	Priority     string         `json:"priority"`
	Dependencies []string       `json:"dependencies"`
	TeamMembers  []string       `json:"team_members"`
	Stages       []stagePayload `json:"stages"`
}

type stagePayload struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Order             int        `json:"order"`
	EstimatedDuration float64    `json:"estimated_duration"`
	ActualDuration    *float64   `json:"actual_duration"`
	Status            string     `json:"status"`
	Assignees         []string   `json:"assignees"`
	Dependencies      []string   `json:"dependencies"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           time.Time  `json:"end_date"`
	ActualEndDate     *time.Time `json:"actual_end_date"`
	Cost              *float64   `json:"cost"`
	Quality           *float64   `json:"quality"`
	Progress          *float64   `json:"progress"`
	Partner           string     `json:"partner"`
}

func (p projectPayload) toDomain() domain.ProductionProject {
	project := domain.ProductionProject{
		ID:           p.ID,
		Name:         p.Name,
		Status:       domain.ProjectStatus(p.Status),
		Start:        p.StartDate,
		End:          p.EndDate,
		Progress:     p.Progress,
		Priority:     domain.ProjectPriority(p.Priority),
		Dependencies: p.Dependencies,
		TeamMembers:  p.TeamMembers,
		Stages:       make([]domain.ProductionStage, 0, len(p.Stages)),
	}
	for _, s := range p.Stages {
		project.Stages = append(project.Stages, domain.ProductionStage{
			ID:                s.ID,
			Name:              s.Name,
			Order:             s.Order,
			EstimatedDuration: s.EstimatedDuration,
			ActualDuration:    s.ActualDuration,
			Status:            domain.StageStatus(s.Status),
			Assignees:         s.Assignees,
			Dependencies:      s.Dependencies,
			Start:             s.StartDate,
			End:               s.EndDate,
			ActualEnd:         s.ActualEndDate,
			Cost:              s.Cost,
			Quality:           s.Quality,
			Progress:          s.Progress,
			Partner:           s.Partner,
		})
	}
	return project
}

type reportResponse struct {
	ID          string                   `json:"id"`
	GeneratedAt string                   `json:"generated_at"`
	Totals      totalsResponse           `json:"totals"`
	Workloads   []workloadResponse       `json:"workloads"`
	Projects    []projectSummaryResponse `json:"projects"`
}

type totalsResponse struct {
	Projects       int `json:"projects"`
	Stages         int `json:"stages"`
	Partners       int `json:"partners"`
	Conflicts      int `json:"conflicts"`
	AtRiskProjects int `json:"at_risk_projects"`
}

type workloadResponse struct {
	Partner        string                   `json:"partner"`
	CurrentStages  []scheduledStageResponse `json:"current_stages"`
	UpcomingStages []scheduledStageResponse `json:"upcoming_stages"`
	TotalHours     float64                  `json:"total_hours"`
	Conflicts      []conflictResponse       `json:"conflicts"`
	Metrics        metricsResponse          `json:"metrics"`
}

type scheduledStageResponse struct {
	ProjectID string `json:"project_id"`
	StageID   string `json:"stage_id"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type conflictResponse struct {
	Timestamp string                   `json:"timestamp"`
	Stages    []scheduledStageResponse `json:"stages"`
}

type metricsResponse struct {
	Utilization    float64 `json:"utilization"`
	Efficiency     float64 `json:"efficiency"`
	OnTimeDelivery float64 `json:"on_time_delivery"`
	AverageDelay   float64 `json:"average_delay"`
	AverageCost    float64 `json:"average_cost"`
	AverageQuality float64 `json:"average_quality"`
}

type projectSummaryResponse struct {
	ProjectID  string             `json:"project_id"`
	Name       string             `json:"name,omitempty"`
	Status     string             `json:"status,omitempty"`
	Priority   string             `json:"priority,omitempty"`
	Confidence confidenceResponse `json:"confidence"`
	Edges      []edgeResponse     `json:"edges"`
}

type confidenceResponse struct {
	Score  float64 `json:"score"`
	Color  string  `json:"color"`
	Reason string  `json:"reason"`
}

type projectConfidenceResponse struct {
	ProjectID   string `json:"project_id"`
	EvaluatedAt string `json:"evaluated_at"`
	confidenceResponse
}

type edgeResponse struct {
	FromStageID string `json:"from_stage_id"`
	ToStageID   string `json:"to_stage_id"`
	Delayed     bool   `json:"delayed"`
}

type problemResponse struct {
	ProjectID string `json:"project_id"`
	StageID   string `json:"stage_id,omitempty"`
	Field     string `json:"field"`
	Reason    string `json:"reason"`
}

func newReportResponse(report services.ScheduleReport) reportResponse {
	resp := reportResponse{
		ID:          report.ID,
		GeneratedAt: formatTime(report.GeneratedAt),
		Totals: totalsResponse{
			Projects:       report.Totals.Projects,
			Stages:         report.Totals.Stages,
			Partners:       report.Totals.Partners,
			Conflicts:      report.Totals.Conflicts,
			AtRiskProjects: report.Totals.AtRiskProjects,
		},
		Workloads: make([]workloadResponse, 0, len(report.Workloads)),
		Projects:  make([]projectSummaryResponse, 0, len(report.Projects)),
	}
	for _, w := range report.Workloads {
		wr := workloadResponse{
			Partner:        w.Partner,
			CurrentStages:  newScheduledStageResponses(w.CurrentStages),
			UpcomingStages: newScheduledStageResponses(w.UpcomingStages),
			TotalHours:     w.TotalHours,
			Conflicts:      make([]conflictResponse, 0, len(w.Conflicts)),
			Metrics: metricsResponse{
				Utilization:    w.Metrics.Utilization,
				Efficiency:     w.Metrics.Efficiency,
				OnTimeDelivery: w.Metrics.OnTimeDelivery,
				AverageDelay:   w.Metrics.AverageDelay,
				AverageCost:    w.Metrics.AverageCost,
				AverageQuality: w.Metrics.AverageQuality,
			},
		}
		for _, c := range w.Conflicts {
			wr.Conflicts = append(wr.Conflicts, conflictResponse{
				Timestamp: formatTime(c.Timestamp),
				Stages:    newScheduledStageResponses(c.Stages),
			})
		}
		resp.Workloads = append(resp.Workloads, wr)
	}
	for _, p := range report.Projects {
		resp.Projects = append(resp.Projects, projectSummaryResponse{
			ProjectID: p.ProjectID,
			Name:      p.Name,
			Status:    string(p.Status),
			Priority:  string(p.Priority),
			Confidence: confidenceResponse{
				Score:  p.Confidence.Score,
				Color:  string(p.Confidence.Color),
				Reason: p.Confidence.Reason,
			},
			Edges: newEdgeResponses(p.Edges),
		})
	}
	return resp
}

func newScheduledStageResponses(stages []analytics.ScheduledStage) []scheduledStageResponse {
	out := make([]scheduledStageResponse, 0, len(stages))
	for _, s := range stages {
		out = append(out, scheduledStageResponse{
			ProjectID: s.ProjectID,
			StageID:   s.ID,
			Name:      s.Name,
			Status:    string(s.Status),
			StartDate: formatTime(s.Start),
			EndDate:   formatTime(s.End),
		})
	}
	return out
}

func newEdgeResponses(edges []analytics.DependencyEdge) []edgeResponse {
	out := make([]edgeResponse, 0, len(edges))
	for _, e := range edges {
		out = append(out, edgeResponse{FromStageID: e.FromStageID, ToStageID: e.ToStageID, Delayed: e.Delayed})
	}
	return out
}
