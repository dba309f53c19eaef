package model

import "time"

// Batch run terminal statuses. Cancelled is distinct from failed: a cancelled
// run still returns every record gathered before the signal was observed.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// ProgressEvent is emitted once per completed partition, success or failure.
// It is purely informational and never mutates fetch state.
type ProgressEvent struct {
	Completed        int    `json:"completed"`
	Total            int    `json:"total"`
	Percentage       int    `json:"percentage"`
	CurrentZone      string `json:"current_zone"`
	CurrentQueryType string `json:"current_query_type"`
	RecordsFetched   int    `json:"records_fetched"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// PartitionError records a single partition's terminal failure.
type PartitionError struct {
	Zone         string `json:"zone"`
	QueryType    string `json:"query_type"`
	ErrorMessage string `json:"error_message"`
}

// BatchResult is the merged outcome of one scheduler run.
type BatchResult struct {
	RunID             string            `json:"run_id"`
	Status            string            `json:"status"`
	Records           []CanonicalRecord `json:"records"`
	TotalCount        int               `json:"total_count"`
	PartitionsTotal   int               `json:"partitions_total"`
	PartitionsFailed  int               `json:"partitions_failed"`
	PartitionsSkipped int               `json:"partitions_skipped"`
	Errors            []PartitionError  `json:"errors,omitempty"`
	Duration          time.Duration     `json:"duration"`
}

// FetchConfig controls batching, retry and throttling behaviour. The zero
// value is not usable; construct via DefaultFetchConfig and override.
type FetchConfig struct {
	ZoneBatchSize  int           `json:"zone_batch_size"`
	BatchDelay     time.Duration `json:"batch_delay"`
	MaxAttempts    int           `json:"max_attempts"`
	RetryBaseDelay time.Duration `json:"retry_base_delay"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultFetchConfig returns the upstream-courtesy defaults: three zones per
// batch, 500ms between batches, three attempts with a 2s linear backoff base.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		ZoneBatchSize:  3,
		BatchDelay:     500 * time.Millisecond,
		MaxAttempts:    3,
		RetryBaseDelay: 2 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}
