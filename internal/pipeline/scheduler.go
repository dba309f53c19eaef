package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
	"github.com/SouptikDatta/railways-intelligence/pkg/utils"
)

// ProgressFunc receives one event per completed partition, success or
// failure. Events arrive with a strictly increasing completed count.
type ProgressFunc func(model.ProgressEvent)

// Scheduler drives the fetcher over the cross product of zones and query
// types: zones are processed in fixed-size batches, all zones of a batch
// are fetched concurrently per query type, and a courtesy delay separates
// batches. It is a constructed service with no ambient state; the cache
// and config are injected by the owner.
type Scheduler struct {
	fetcher *Fetcher
	cache   *PartitionCache
	cfg     model.FetchConfig
}

// NewScheduler builds a scheduler over source with the given cache and
// config.
func NewScheduler(source RecordSource, cache *PartitionCache, cfg model.FetchConfig) *Scheduler {
	return &Scheduler{
		fetcher: NewFetcher(source, cfg),
		cache:   cache,
		cfg:     cfg,
	}
}

// Cache exposes the injected partition cache so owners can clear it before
// a refresh that intends to re-hit upstream.
func (s *Scheduler) Cache() *PartitionCache { return s.cache }

// runState is the shared mutable state of one batch run. All writes happen
// under mu, which also serializes progress callbacks so the completed
// count is strictly increasing for the consumer.
type runState struct {
	mu         sync.Mutex
	completed  int
	total      int
	records    []model.CanonicalRecord
	failed     int
	partErrors []model.PartitionError
	onProgress ProgressFunc
}

func (rs *runState) finish(key model.PartitionKey, records []model.CanonicalRecord, errMsg string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.completed++
	if errMsg != "" {
		rs.failed++
		rs.partErrors = append(rs.partErrors, model.PartitionError{
			Zone:         key.Zone,
			QueryType:    key.QueryType,
			ErrorMessage: errMsg,
		})
	} else {
		rs.records = append(rs.records, records...)
	}

	if rs.onProgress != nil {
		rs.onProgress(model.ProgressEvent{
			Completed:        rs.completed,
			Total:            rs.total,
			Percentage:       utils.Percentage(rs.completed, rs.total),
			CurrentZone:      key.Zone,
			CurrentQueryType: key.QueryType,
			RecordsFetched:   len(records),
			ErrorMessage:     errMsg,
		})
	}
}

// Run fetches every (zone, query type) partition and returns the merged
// record set. A single partition's failure is contained: it contributes an
// empty result and an error message on its progress event, and the batch
// keeps going. Cancellation stops new fetches as soon as it is observed
// and resolves the run with whatever was gathered, tagged cancelled.
// An empty runID gets a generated one.
func (s *Scheduler) Run(ctx context.Context, runID string, zones, queryTypes []string, onProgress ProgressFunc) (*model.BatchResult, error) {
	if len(zones) == 0 || len(queryTypes) == 0 {
		return nil, fmt.Errorf("scheduler: zones and query types must be non-empty")
	}

	start := time.Now()
	if runID == "" {
		runID = uuid.New().String()
	}
	total := len(zones) * len(queryTypes)

	fmt.Printf("🚂 Starting batch run %s: %d zones x %d query types (%d partitions)\n",
		runID, len(zones), len(queryTypes), total)

	state := &runState{total: total, onProgress: onProgress}
	cancelled := false

	batchSize := s.cfg.ZoneBatchSize
	if batchSize <= 0 {
		batchSize = len(zones)
	}

outer:
	for batchStart := 0; batchStart < len(zones); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(zones) {
			batchEnd = len(zones)
		}
		batch := zones[batchStart:batchEnd]

		for _, queryType := range queryTypes {
			if ctx.Err() != nil {
				cancelled = true
				break outer
			}

			// All zones of the current batch fetch concurrently for
			// this query type; the group bounds upstream load.
			g, gctx := errgroup.WithContext(ctx)
			for _, zone := range batch {
				key := model.PartitionKey{Zone: zone, QueryType: queryType}
				g.Go(func() error {
					s.fetchPartition(gctx, key, state)
					return nil
				})
			}
			g.Wait()
		}

		// Courtesy throttle between zone batches, skipped after the last.
		if batchEnd < len(zones) {
			select {
			case <-ctx.Done():
				cancelled = true
				break outer
			case <-time.After(s.cfg.BatchDelay):
			}
		}
	}
	if ctx.Err() != nil {
		cancelled = true
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	result := &model.BatchResult{
		RunID:             runID,
		Records:           state.records,
		TotalCount:        len(state.records),
		PartitionsTotal:   total,
		PartitionsFailed:  state.failed,
		PartitionsSkipped: total - state.completed,
		Errors:            state.partErrors,
		Duration:          time.Since(start),
	}
	switch {
	case cancelled:
		result.Status = model.StatusCancelled
	case state.failed == total:
		result.Status = model.StatusFailed
	default:
		result.Status = model.StatusCompleted
	}

	fmt.Printf("🏁 Batch run %s %s: %d records, %d/%d partitions failed, %d skipped (%v)\n",
		runID, result.Status, result.TotalCount, result.PartitionsFailed,
		result.PartitionsTotal, result.PartitionsSkipped, result.Duration)

	return result, nil
}

// fetchPartition resolves one partition through the cache, delegating to
// the fetcher on a miss. A cancelled fetch counts as skipped, not failed,
// and emits no progress event.
func (s *Scheduler) fetchPartition(ctx context.Context, key model.PartitionKey, state *runState) {
	if cached, ok := s.cache.Get(key); ok {
		state.finish(key, cached, "")
		return
	}

	raws, err := s.fetcher.Fetch(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return
		}
		state.finish(key, nil, err.Error())
		return
	}

	records := NormalizeAll(raws, key.QueryType, key.Zone)
	s.cache.Put(key, records)
	state.finish(key, records, "")
}
