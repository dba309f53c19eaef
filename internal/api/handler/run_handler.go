package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
	"github.com/SouptikDatta/railways-intelligence/internal/pipeline"
	"github.com/SouptikDatta/railways-intelligence/internal/store"
)

// RunRequest is the payload for starting a batch run. Empty slices default
// to every known zone and query type.
type RunRequest struct {
	Zones      []string `json:"zones"`
	QueryTypes []string `json:"queryTypes"`
}

// activeRun holds one run's in-memory state: the cancel hook while it is
// running and the merged record set once it resolves. Records live only
// here; the store keeps tracking rows, never records.
type activeRun struct {
	cancel  context.CancelFunc
	status  string
	records []model.CanonicalRecord
	latest  model.ProgressEvent
}

// RunManager owns the scheduler and the in-memory run registry behind the
// HTTP API.
type RunManager struct {
	mu        sync.RWMutex
	scheduler *pipeline.Scheduler
	store     *store.Store
	runs      map[string]*activeRun
}

// NewRunManager wires the handlers' collaborators together.
func NewRunManager(scheduler *pipeline.Scheduler, st *store.Store) *RunManager {
	return &RunManager{
		scheduler: scheduler,
		store:     st,
		runs:      make(map[string]*activeRun),
	}
}

// StartRun starts a batch fetch run
// @Summary Start a batch fetch run
// @Description Kick off a concurrent fetch over the requested zones and query types; returns immediately with the run id
// @Tags runs
// @Accept json
// @Produce json
// @Param run body RunRequest false "Zones and query types; defaults to all"
// @Success 200 {object} map[string]interface{} "Run accepted"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Router /runs [post]
func (m *RunManager) StartRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
			return
		}
	}
	if len(req.Zones) == 0 {
		req.Zones = model.Zones
	}
	if len(req.QueryTypes) == 0 {
		req.QueryTypes = model.QueryTypes
	}

	runID := uuid.New().String()
	if err := m.store.SaveRun(runID, req.Zones, req.QueryTypes); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}

	m.launch(runID, req.Zones, req.QueryTypes)

	writeJSON(w, map[string]interface{}{
		"message":   "Run started",
		"runID":     runID,
		"status":    model.StatusRunning,
		"createdAt": time.Now().UTC(),
	})
}

// launch registers the run and executes the scheduler asynchronously.
func (m *RunManager) launch(runID string, zones, queryTypes []string) {
	ctx, cancel := context.WithCancel(context.Background())

	run := &activeRun{cancel: cancel, status: model.StatusRunning}
	m.mu.Lock()
	m.runs[runID] = run
	m.mu.Unlock()

	go func() {
		defer cancel()

		result, err := m.scheduler.Run(ctx, runID, zones, queryTypes, func(ev model.ProgressEvent) {
			m.mu.Lock()
			run.latest = ev
			m.mu.Unlock()
			m.store.SaveProgress(runID, ev)
		})

		m.mu.Lock()
		defer m.mu.Unlock()
		if err != nil {
			run.status = model.StatusFailed
			m.store.UpdateRunStatus(runID, model.StatusFailed)
			m.store.SaveRunError(runID, model.PartitionError{ErrorMessage: err.Error()})
			return
		}
		run.status = result.Status
		run.records = result.Records
		m.store.FinishRun(result)
	}()
}

// ListRuns lists all runs
// @Summary List runs
// @Tags runs
// @Produce json
// @Success 200 {array} map[string]interface{} "Runs, newest first"
// @Router /runs [get]
func (m *RunManager) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := m.store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// GetRun retrieves one run's tracking row
// @Summary Get run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run details"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (m *RunManager) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r.URL.Path, "")
	if !ok {
		return
	}
	run, err := m.store.GetRun(runID)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}

// GetRunStatus returns a run's live status from memory
// @Summary Get run status
// @Description Current status and latest progress event without touching the tracking store; suited to dashboard polling
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Status and latest progress event"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id}/status [get]
func (m *RunManager) GetRunStatus(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r.URL.Path, "/status")
	if !ok {
		return
	}

	m.mu.RLock()
	run, exists := m.runs[runID]
	var status string
	var latest model.ProgressEvent
	if exists {
		status, latest = run.status, run.latest
	}
	m.mu.RUnlock()
	if !exists {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]interface{}{
		"run_id": runID,
		"status": status,
		"latest": latest,
	})
}

// GetProgress returns a run's progress stream
// @Summary Get run progress
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Progress events in emission order"
// @Router /runs/{id}/progress [get]
func (m *RunManager) GetProgress(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r.URL.Path, "/progress")
	if !ok {
		return
	}
	events, err := m.store.GetProgress(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve progress", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"run_id":   runID,
		"progress": events,
		"count":    len(events),
	})
}

// GetRunErrors returns a run's partition failures
// @Summary Get run errors
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Partition failures"
// @Router /runs/{id}/errors [get]
func (m *RunManager) GetRunErrors(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r.URL.Path, "/errors")
	if !ok {
		return
	}
	errs, err := m.store.GetRunErrors(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"run_id": runID,
		"errors": errs,
		"count":  len(errs),
	})
}

// CancelRun cancels a running batch
// @Summary Cancel run
// @Description Cooperative cancellation: partitions not yet started are skipped; the run resolves with whatever was gathered
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Cancellation signalled"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id}/cancel [patch]
func (m *RunManager) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r.URL.Path, "/cancel")
	if !ok {
		return
	}

	m.mu.RLock()
	run, exists := m.runs[runID]
	m.mu.RUnlock()
	if !exists {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	run.cancel()
	writeJSON(w, map[string]interface{}{
		"run_id": runID,
		"status": model.StatusCancelled,
	})
}

// GetRecords returns a run's records with dashboard filters applied
// @Summary Get run records
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Param zone query string false "Zone filter"
// @Param month query int false "Month filter (0-11)"
// @Param queryType query string false "Query type filter"
// @Param commodity query string false "Commodity filter (matches commodity or rake commodity)"
// @Param from query string false "Inclusive start date (2006-01-02)"
// @Param to query string false "Inclusive end date (2006-01-02)"
// @Success 200 {object} map[string]interface{} "Filtered records"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id}/records [get]
func (m *RunManager) GetRecords(w http.ResponseWriter, r *http.Request) {
	runID, records, ok := m.runRecords(w, r.URL.Path, "/records")
	if !ok {
		return
	}

	records = applyQueryFilters(records, r)
	writeJSON(w, map[string]interface{}{
		"run_id":      runID,
		"records":     records,
		"total_count": len(records),
	})
}

// GetAggregation runs a named reducer over a run's (filtered) records
// @Summary Get an aggregation
// @Description Reducers: by-month, by-commodity, top-consignors, top-destinations, by-zone, by-rake-type, by-division, consignee-analysis, by-query-type, time-of-day, by-priority-code, route-analysis, summary
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Param name path string true "Reducer name"
// @Param limit query int false "Top-N truncation limit"
// @Success 200 {object} map[string]interface{} "Aggregation buckets"
// @Failure 400 {object} map[string]interface{} "Unknown reducer"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id}/aggregations/{name} [get]
func (m *RunManager) GetAggregation(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// /api/v1/runs/{id}/aggregations/{name}
	if len(segments) < 6 {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}
	runID, name := segments[3], segments[5]

	records, ok := m.recordsFor(runID)
	if !ok {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	records = applyQueryFilters(records, r)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	buckets, err := pipeline.Aggregate(records, name, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"run_id":  runID,
		"reducer": name,
		"result":  buckets,
	})
}

// GetSummary returns a run's overall statistics
// @Summary Get run summary statistics
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} pipeline.Summary "Summary statistics"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id}/summary [get]
func (m *RunManager) GetSummary(w http.ResponseWriter, r *http.Request) {
	_, records, ok := m.runRecords(w, r.URL.Path, "/summary")
	if !ok {
		return
	}
	records = applyQueryFilters(records, r)
	writeJSON(w, pipeline.SummaryStats(records))
}

// RefreshRun re-runs a finished run's zones and query types
// @Summary Refresh a run
// @Description Starts a new run over the same partitions. clearCache defaults to true so the refresh re-hits upstream; pass clearCache=false to serve cached partitions
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Param clearCache query bool false "Clear the partition cache first (default true)"
// @Success 200 {object} map[string]interface{} "New run accepted"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id}/refresh [post]
func (m *RunManager) RefreshRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r.URL.Path, "/refresh")
	if !ok {
		return
	}
	prev, err := m.store.GetRun(runID)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	zones, _ := prev["zones"].([]string)
	queryTypes, _ := prev["queryTypes"].([]string)

	if r.URL.Query().Get("clearCache") != "false" {
		m.scheduler.Cache().Clear()
	}

	newID := uuid.New().String()
	if err := m.store.SaveRun(newID, zones, queryTypes); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}
	m.launch(newID, zones, queryTypes)

	writeJSON(w, map[string]interface{}{
		"message":    "Refresh started",
		"runID":      newID,
		"refreshOf":  runID,
		"status":     model.StatusRunning,
		"cacheReset": r.URL.Query().Get("clearCache") != "false",
	})
}

// ---- helpers ----

func (m *RunManager) recordsFor(runID string) ([]model.CanonicalRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, false
	}
	return run.records, true
}

func (m *RunManager) runRecords(w http.ResponseWriter, path, suffix string) (string, []model.CanonicalRecord, bool) {
	runID, ok := runIDFromPath(w, path, suffix)
	if !ok {
		return "", nil, false
	}
	records, exists := m.recordsFor(runID)
	if !exists {
		http.Error(w, "Run not found", http.StatusNotFound)
		return "", nil, false
	}
	return runID, records, true
}

// runIDFromPath extracts the run id from /api/v1/runs/{id}{suffix},
// writing an error response on malformed paths.
func runIDFromPath(w http.ResponseWriter, path, suffix string) (string, bool) {
	prefix := "/api/v1/runs/"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return "", false
	}
	runID := path[len(prefix) : len(path)-len(suffix)]
	if runID == "" || strings.Contains(runID, "/") {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return "", false
	}
	return runID, true
}

// applyQueryFilters translates query params into the filter stage.
func applyQueryFilters(records []model.CanonicalRecord, r *http.Request) []model.CanonicalRecord {
	q := r.URL.Query()

	criteria := pipeline.Criteria{
		Zone:      q.Get("zone"),
		QueryType: q.Get("queryType"),
		Commodity: q.Get("commodity"),
	}
	if monthStr := q.Get("month"); monthStr != "" && !strings.EqualFold(monthStr, pipeline.FilterAll) {
		if month, err := strconv.Atoi(monthStr); err == nil {
			criteria.Month = &month
		}
	}
	records = pipeline.Apply(records, criteria)

	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr != "" && toStr != "" {
		from, errFrom := time.Parse("2006-01-02", fromStr)
		to, errTo := time.Parse("2006-01-02", toStr)
		if errFrom == nil && errTo == nil {
			// make the end date inclusive of its whole day
			records = pipeline.ApplyDateRange(records, from, to.Add(24*time.Hour-time.Nanosecond))
		}
	}
	return records
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
