package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
)

// APISource scrapes demand records from the upstream railway query
// endpoint, one POST per (zone, query type) partition. Transport errors,
// non-2xx statuses and malformed payloads all come back as errors with
// zero records.
type APISource struct {
	Endpoint string
	Client   *http.Client
}

// NewAPISource builds a client for endpoint with the given per-request
// timeout.
func NewAPISource(endpoint string, timeout time.Duration) *APISource {
	return &APISource{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

type partitionQuery struct {
	Zone      string `json:"zone"`
	QueryType string `json:"qry_type"`
}

// FetchPartition retrieves one partition's raw rows. The upstream replies
// with a JSON array of rows in one of the two demand schemas.
func (s *APISource) FetchPartition(ctx context.Context, zone, queryType string) ([]model.RawRecord, error) {
	body, err := json.Marshal(partitionQuery{Zone: zone, QueryType: queryType})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("upstream returned status %d for %s/%s", resp.StatusCode, zone, queryType)
	}

	var rows []model.RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("malformed upstream payload for %s/%s: %w", zone, queryType, err)
	}
	return rows, nil
}
