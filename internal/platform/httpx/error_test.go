package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"github.com/hanko-field/schedule/internal/platform/requestctx"
)

func TestWriteErrorIncludesRequestAndTraceIDs(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{TraceID: "trace-1"})

	rec := httptest.NewRecorder()
	WriteError(ctx, rec, NewError("invalid_schedule", "schedule\nis invalid", http.StatusBadRequest).
		WithDetails(map[string]any{"problems": []string{"stage s-1: missing partner"}}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_schedule", body["error"])
	require.Equal(t, "schedule is invalid", body["message"])
	require.EqualValues(t, http.StatusBadRequest, body["status"])
	require.Equal(t, "req-1", body["request_id"])
	require.Equal(t, "trace-1", body["trace_id"])
	require.Equal(t, []any{"stage s-1: missing partner"}, body["problems"])
}

func TestNewErrorDefaultsAndTruncates(t *testing.T) {
	err := NewError(strings.Repeat("x", 100), "boom", 0)
	require.Equal(t, http.StatusInternalServerError, err.Status)
	require.Len(t, err.Code, 80)

	rec := httptest.NewRecorder()
	WriteError(context.Background(), rec, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotContains(t, body, "request_id")
	require.NotContains(t, body, "trace_id")
}

func TestWithDetailsCopiesMap(t *testing.T) {
	details := map[string]any{"field": "stages"}
	err := NewError("bad", "bad", http.StatusBadRequest).WithDetails(details)
	details["field"] = "changed"
	require.Equal(t, "stages", err.Details["field"])
}
