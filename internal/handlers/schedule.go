package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/schedule/internal/analytics"
	"github.com/hanko-field/schedule/internal/domain"
	"github.com/hanko-field/schedule/internal/platform/httpx"
	"github.com/hanko-field/schedule/internal/services"
)

const defaultMaxScheduleBodySize int64 = 1 << 20

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("request body is required")
)

// ScheduleHandlers exposes schedule analytics over HTTP.
type ScheduleHandlers struct {
	svc     services.ScheduleService
	maxBody int64
}

// ScheduleOption customises ScheduleHandlers.
type ScheduleOption func(*ScheduleHandlers)

// WithMaxBodyBytes caps accepted snapshot payloads.
func WithMaxBodyBytes(limit int64) ScheduleOption {
	return func(h *ScheduleHandlers) {
		if limit > 0 {
			h.maxBody = limit
		}
	}
}

// NewScheduleHandlers constructs schedule handlers backed by svc.
func NewScheduleHandlers(svc services.ScheduleService, opts ...ScheduleOption) *ScheduleHandlers {
	h := &ScheduleHandlers{svc: svc, maxBody: defaultMaxScheduleBodySize}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the schedule endpoints relative to the API base path.
func (h *ScheduleHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/schedule:analyze", h.analyze)
	r.Get("/schedule/report", h.report)
	r.Get("/projects/{projectId}/confidence", h.confidence)
	r.Get("/projects/{projectId}/edges", h.edges)
}

func (h *ScheduleHandlers) analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("schedule_unavailable", "schedule service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, h.maxBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req analyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	cmd := services.AnalyzeCommand{
		Projects: make([]domain.ProductionProject, 0, len(req.Projects)),
		Now:      req.Now,
	}
	for _, p := range req.Projects {
		cmd.Projects = append(cmd.Projects, p.toDomain())
	}

	report, err := h.svc.Analyze(ctx, cmd)
	if err != nil {
		writeScheduleError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newReportResponse(report))
}

func (h *ScheduleHandlers) report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("schedule_unavailable", "schedule service unavailable", http.StatusServiceUnavailable))
		return
	}

	now, err := parseNowParam(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_now", err.Error(), http.StatusBadRequest))
		return
	}

	report, err := h.svc.AnalyzeStored(ctx, services.AnalyzeStoredCommand{
		ProjectIDs: projectIDsParam(r),
		Now:        now,
	})
	if err != nil {
		writeScheduleError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newReportResponse(report))
}

func (h *ScheduleHandlers) confidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("schedule_unavailable", "schedule service unavailable", http.StatusServiceUnavailable))
		return
	}

	now, err := parseNowParam(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_now", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.svc.ProjectConfidence(ctx, chi.URLParam(r, "projectId"), now)
	if err != nil {
		writeScheduleError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, projectConfidenceResponse{
		ProjectID:   result.ProjectID,
		EvaluatedAt: formatTime(result.EvaluatedAt),
		confidenceResponse: confidenceResponse{
			Score:  result.Score,
			Color:  string(result.Color),
			Reason: result.Reason,
		},
	})
}

func (h *ScheduleHandlers) edges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("schedule_unavailable", "schedule service unavailable", http.StatusServiceUnavailable))
		return
	}

	edges, err := h.svc.ProjectEdges(ctx, chi.URLParam(r, "projectId"))
	if err != nil {
		writeScheduleError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newEdgeResponses(edges))
}

func parseNowParam(r *http.Request) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("now"))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("now must be an RFC3339 timestamp: %q", raw)
	}
	return &t, nil
}

func projectIDsParam(r *http.Request) []string {
	var ids []string
	for _, value := range r.URL.Query()["project_id"] {
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func writeScheduleError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		problems := make([]problemResponse, 0, len(verr.Problems()))
		for _, p := range verr.Problems() {
			problems = append(problems, problemResponse{ProjectID: p.ProjectID, StageID: p.StageID, Field: p.Field, Reason: p.Reason})
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_schedule", "schedule snapshot failed validation", http.StatusBadRequest).
			WithDetails(map[string]any{"problems": problems}))
	case errors.Is(err, services.ErrScheduleInvalidInput), errors.Is(err, analytics.ErrMissingPartner):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProjectNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("project_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrScheduleUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("schedule_unavailable", "project store unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("timeout", "schedule analysis timed out", http.StatusGatewayTimeout))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("schedule_error", "failed to process schedule request", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", err.Error(), http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = defaultMaxScheduleBodySize
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}
