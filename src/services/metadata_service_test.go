// backend/src/services/metadata_service_test.go
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cartera/backend/src/logger"
)

func init() {
	logger.InitLogger("error")
}

func metadataTestOptions(baseURL string) MetadataOptions {
	return MetadataOptions{
		BaseURL:      baseURL,
		BatchSize:    25,
		RateLimit:    1000,
		RateWindow:   time.Second,
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		Cooldown429:  10 * time.Millisecond,
		CacheExpiry:  time.Minute,
		CacheCleanup: time.Minute,
	}
}

func writeLookupResponse(w http.ResponseWriter, types map[string]string) {
	results := make(map[string]map[string]string, len(types))
	for isin, t := range types {
		results[isin] = map[string]string{"type": t}
	}
	json.NewEncoder(w).Encode(map[string]any{"results": results})
}

func TestLookupByISINReturnsTypes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/lookup", r.URL.Path)

		var req lookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.ElementsMatch(t, []string{"US0378331005", "IE00B4L5Y983"}, req.ISINs)

		writeLookupResponse(w, map[string]string{
			"US0378331005": "stock",
			"IE00B4L5Y983": "etf",
		})
	}))
	defer server.Close()

	svc := NewMetadataService(metadataTestOptions(server.URL))
	got := svc.LookupByISIN(context.Background(), []string{"US0378331005", "IE00B4L5Y983"})

	assert.Equal(t, "stock", got["US0378331005"])
	assert.Equal(t, "etf", got["IE00B4L5Y983"])
}

func TestLookupByISINCachesResults(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeLookupResponse(w, map[string]string{"US0378331005": "stock"})
	}))
	defer server.Close()

	svc := NewMetadataService(metadataTestOptions(server.URL))
	svc.LookupByISIN(context.Background(), []string{"US0378331005"})
	got := svc.LookupByISIN(context.Background(), []string{"US0378331005"})

	assert.Equal(t, "stock", got["US0378331005"])
	assert.Equal(t, int32(1), calls.Load(), "second lookup must be served from cache")
}

func TestLookupByISINPartialResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeLookupResponse(w, map[string]string{"US0378331005": "stock"})
	}))
	defer server.Close()

	svc := NewMetadataService(metadataTestOptions(server.URL))
	got := svc.LookupByISIN(context.Background(), []string{"US0378331005", "XX0000000000"})

	assert.Equal(t, "stock", got["US0378331005"])
	_, found := got["XX0000000000"]
	assert.False(t, found, "unknown ISINs stay absent so callers can fall back to inference")
}

func TestLookupByISINRetriesAfter429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeLookupResponse(w, map[string]string{"US0378331005": "stock"})
	}))
	defer server.Close()

	svc := NewMetadataService(metadataTestOptions(server.URL))
	got := svc.LookupByISIN(context.Background(), []string{"US0378331005"})

	assert.Equal(t, "stock", got["US0378331005"])
	assert.Equal(t, int32(2), calls.Load(), "429 must be retried after the cooldown")
}

func TestLookupByISINDegradesOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	opts := metadataTestOptions(server.URL)
	opts.MaxRetries = 1
	svc := NewMetadataService(opts)
	got := svc.LookupByISIN(context.Background(), []string{"US0378331005"})

	assert.Empty(t, got, "lookup failures degrade to an empty result, never an error")
}

func TestLookupByISINWithoutBaseURL(t *testing.T) {
	svc := NewMetadataService(metadataTestOptions(""))
	got := svc.LookupByISIN(context.Background(), []string{"US0378331005"})
	assert.Empty(t, got)
}

func TestLookupByISINConcurrentCallersSurvive429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req lookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		types := make(map[string]string, len(req.ISINs))
		for _, isin := range req.ISINs {
			types[isin] = "stock"
		}
		writeLookupResponse(w, types)
	}))
	defer server.Close()

	// One shared service, several goroutines: the 429 window reset must not
	// race with other callers waiting on the limiter.
	svc := NewMetadataService(metadataTestOptions(server.URL))
	isins := []string{"AA0000000001", "BB0000000002", "CC0000000003", "DD0000000004"}

	var wg sync.WaitGroup
	results := make([]map[string]string, len(isins))
	for i, isin := range isins {
		wg.Add(1)
		go func(i int, isin string) {
			defer wg.Done()
			results[i] = svc.LookupByISIN(context.Background(), []string{isin})
		}(i, isin)
	}
	wg.Wait()

	for i, isin := range isins {
		assert.Equal(t, "stock", results[i][isin])
	}
}

func TestLookupByISINBatchesRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req lookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.LessOrEqual(t, len(req.ISINs), 2)

		types := make(map[string]string, len(req.ISINs))
		for _, isin := range req.ISINs {
			types[isin] = "stock"
		}
		writeLookupResponse(w, types)
	}))
	defer server.Close()

	opts := metadataTestOptions(server.URL)
	opts.BatchSize = 2
	svc := NewMetadataService(opts)
	got := svc.LookupByISIN(context.Background(), []string{"AA0000000001", "BB0000000002", "CC0000000003"})

	assert.Len(t, got, 3)
	assert.Equal(t, int32(2), calls.Load(), "three ISINs with batch size 2 need two calls")
}
