package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
	"github.com/SouptikDatta/railways-intelligence/internal/pipeline"
	"github.com/SouptikDatta/railways-intelligence/internal/store"
)

type staticSource struct{}

func (staticSource) FetchPartition(ctx context.Context, zone, queryType string) ([]model.RawRecord, error) {
	return []model.RawRecord{
		{Division: zone + "-DVSN", Zone: zone, Commodity: "COAL", OutstandingUnits: "2"},
		{Division: "TOTAL"}, // summary row, must be filtered out
	}, nil
}

func newTestManager(t *testing.T) *RunManager {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := model.FetchConfig{ZoneBatchSize: 3, BatchDelay: time.Millisecond, MaxAttempts: 1, RetryBaseDelay: time.Millisecond}
	sched := pipeline.NewScheduler(staticSource{}, pipeline.NewPartitionCache(), cfg)
	return NewRunManager(sched, st)
}

func startAndWait(t *testing.T, m *RunManager) string {
	t.Helper()
	body := strings.NewReader(`{"zones":["CR","ER"],"queryTypes":["outstanding-demand"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", body)
	rec := httptest.NewRecorder()
	m.StartRun(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	runID, _ := resp["runID"].(string)
	require.NotEmpty(t, runID)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.RLock()
		status := m.runs[runID].status
		m.mu.RUnlock()
		if status != model.StatusRunning {
			return runID
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("run did not finish in time")
	return ""
}

func TestStartRunAndGetRecords(t *testing.T) {
	m := newTestManager(t)
	runID := startAndWait(t, m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID+"/records", nil)
	rec := httptest.NewRecorder()
	m.GetRecords(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalCount int                     `json:"total_count"`
		Records    []model.CanonicalRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalCount, "one record per zone, TOTAL rows dropped")
}

func TestGetRecordsWithZoneFilter(t *testing.T) {
	m := newTestManager(t)
	runID := startAndWait(t, m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID+"/records?zone=CR", nil)
	rec := httptest.NewRecorder()
	m.GetRecords(rec, req)

	var resp struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalCount)
}

func TestGetAggregation(t *testing.T) {
	m := newTestManager(t)
	runID := startAndWait(t, m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID+"/aggregations/by-zone", nil)
	rec := httptest.NewRecorder()
	m.GetAggregation(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reducer string            `json:"reducer"`
		Result  []pipeline.Bucket `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "by-zone", resp.Reducer)
	assert.Len(t, resp.Result, 2)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID+"/aggregations/bogus", nil)
	rec = httptest.NewRecorder()
	m.GetAggregation(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSummary(t *testing.T) {
	m := newTestManager(t)
	runID := startAndWait(t, m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID+"/summary", nil)
	rec := httptest.NewRecorder()
	m.GetSummary(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var s pipeline.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 2, s.TotalOrders)
	assert.Equal(t, 4, s.TotalUnits)
}

func TestGetProgressStream(t *testing.T) {
	m := newTestManager(t)
	runID := startAndWait(t, m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID+"/progress", nil)
	rec := httptest.NewRecorder()
	m.GetProgress(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count    int                   `json:"count"`
		Progress []model.ProgressEvent `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 100, resp.Progress[len(resp.Progress)-1].Percentage)
}

func TestGetRunStatus(t *testing.T) {
	m := newTestManager(t)
	runID := startAndWait(t, m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+runID+"/status", nil)
	rec := httptest.NewRecorder()
	m.GetRunStatus(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID  string              `json:"run_id"`
		Status string              `json:"status"`
		Latest model.ProgressEvent `json:"latest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, runID, resp.RunID)
	assert.Equal(t, model.StatusCompleted, resp.Status)
	assert.Equal(t, 2, resp.Latest.Completed)
	assert.Equal(t, 100, resp.Latest.Percentage)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs/missing/status", nil)
	rec = httptest.NewRecorder()
	m.GetRunStatus(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelUnknownRun(t *testing.T) {
	m := newTestManager(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/runs/missing/cancel", nil)
	rec := httptest.NewRecorder()
	m.CancelRun(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunIDFromPath(t *testing.T) {
	rec := httptest.NewRecorder()
	id, ok := runIDFromPath(rec, "/api/v1/runs/abc/progress", "/progress")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	rec = httptest.NewRecorder()
	_, ok = runIDFromPath(rec, "/api/v1/runs//progress", "/progress")
	assert.False(t, ok)
}
