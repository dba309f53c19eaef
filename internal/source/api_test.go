package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPISourceFetchPartition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var q partitionQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "CR", q.Zone)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"DVSN":"BSL","CMDT":"COAL","OTSG_UNTS":"3","ZONE":"CR"}]`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, 5*time.Second)
	rows, err := src.FetchPartition(context.Background(), "CR", "outstanding-demand")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BSL", rows[0].Division)
	assert.Equal(t, "3", rows[0].OutstandingUnits)
}

func TestAPISourceNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, 5*time.Second)
	rows, err := src.FetchPartition(context.Background(), "CR", "outstanding-demand")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Empty(t, rows)
}

func TestAPISourceMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance page</html>`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, 5*time.Second)
	rows, err := src.FetchPartition(context.Background(), "CR", "outstanding-demand")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
	assert.Empty(t, rows)
}

func TestAPISourceRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect
		// and cancel r.Context(); otherwise this handler never returns
		// and srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	src := NewAPISource(srv.URL, 5*time.Second)
	_, err := src.FetchPartition(ctx, "CR", "outstanding-demand")
	assert.Error(t, err)
}
