package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
)

// ErrCancelled marks a fetch aborted by cancellation rather than a
// transport failure. Check with errors.Is.
var ErrCancelled = errors.New("fetch cancelled")

// RecordSource retrieves one partition's raw rows from an upstream
// collaborator (scraped API or SQL database). Implementations must signal
// transport errors, non-success statuses and malformed payloads as errors
// with zero records, never panic.
type RecordSource interface {
	FetchPartition(ctx context.Context, zone, queryType string) ([]model.RawRecord, error)
}

// Fetcher retrieves single partitions with bounded retry. A failed
// partition only fails itself; siblings keep running.
type Fetcher struct {
	source RecordSource
	cfg    model.FetchConfig
}

// NewFetcher wraps source with the retry policy in cfg.
func NewFetcher(source RecordSource, cfg model.FetchConfig) *Fetcher {
	return &Fetcher{source: source, cfg: cfg}
}

// Fetch retrieves one partition, retrying up to MaxAttempts with linearly
// increasing backoff (attempt x RetryBaseDelay). Cancellation during a
// retry wait or in-flight request surfaces as ErrCancelled.
func (f *Fetcher) Fetch(ctx context.Context, key model.PartitionKey) ([]model.RawRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}

		records, err := f.source.FetchPartition(ctx, key.Zone, key.QueryType)
		if err == nil {
			return records, nil
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, ErrCancelled
		}
		lastErr = err

		if attempt == f.cfg.MaxAttempts {
			break
		}

		backoff := time.Duration(attempt) * f.cfg.RetryBaseDelay
		fmt.Printf("⚠️ fetch %s failed (attempt %d/%d), retrying in %s: %v\n",
			key, attempt, f.cfg.MaxAttempts, backoff, err)

		select {
		case <-ctx.Done():
			return nil, ErrCancelled
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("partition %s failed after %d attempts: %w", key, f.cfg.MaxAttempts, lastErr)
}
