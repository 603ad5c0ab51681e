// backend/src/services/metadata_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/cartera/backend/src/logger"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// metadataServiceImpl talks to the external ISIN metadata collaborator.
// Lookups run strictly outside the import's database transaction: the
// network must never hold a DB lock. Results are cached, requests are rate
// limited per window, and HTTP 429 gets a fixed cooldown before the same
// batch is retried.
type metadataServiceImpl struct {
	httpClient  http.Client
	baseURL     string
	batchSize   int
	maxRetries  int
	cooldown429 time.Duration
	rateLimit   int
	rateWindow  time.Duration
	resultCache *cache.Cache

	mu      sync.Mutex // guards limiter replacement on window reset
	limiter *rate.Limiter
}

type MetadataOptions struct {
	BaseURL      string
	BatchSize    int
	RateLimit    int // requests per window
	RateWindow   time.Duration
	Timeout      time.Duration
	MaxRetries   int
	Cooldown429  time.Duration
	CacheExpiry  time.Duration
	CacheCleanup time.Duration
}

func NewMetadataService(opts MetadataOptions) MetadataService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = 25
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}

	return &metadataServiceImpl{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: opts.Timeout,
		},
		baseURL:     opts.BaseURL,
		batchSize:   opts.BatchSize,
		maxRetries:  opts.MaxRetries,
		cooldown429: opts.Cooldown429,
		rateLimit:   opts.RateLimit,
		rateWindow:  opts.RateWindow,
		limiter:     rate.NewLimiter(rate.Every(opts.RateWindow/time.Duration(opts.RateLimit)), opts.RateLimit),
		resultCache: cache.New(opts.CacheExpiry, opts.CacheCleanup),
	}
}

func (s *metadataServiceImpl) waitLimiter(ctx context.Context) error {
	s.mu.Lock()
	limiter := s.limiter
	s.mu.Unlock()
	return limiter.Wait(ctx)
}

// resetLimiter restores a full window budget after a 429 cooldown. Imports
// may share one service across goroutines, so the swap is guarded.
func (s *metadataServiceImpl) resetLimiter() {
	s.mu.Lock()
	s.limiter = rate.NewLimiter(rate.Every(s.rateWindow/time.Duration(s.rateLimit)), s.rateLimit)
	s.mu.Unlock()
}

type lookupRequest struct {
	ISINs []string `json:"isins"`
}

type lookupResponse struct {
	Results map[string]struct {
		Type string `json:"type"`
	} `json:"results"`
}

// LookupByISIN resolves instrument types for the given ISINs. The result may
// be partial or empty: every failure path degrades to "not found" so the
// orchestrator can fall back to keyword inference.
func (s *metadataServiceImpl) LookupByISIN(ctx context.Context, isins []string) map[string]string {
	out := make(map[string]string)
	if len(isins) == 0 || s.baseURL == "" {
		return out
	}

	var misses []string
	for _, isin := range isins {
		if cached, found := s.resultCache.Get(isin); found {
			out[isin] = cached.(string)
			continue
		}
		misses = append(misses, isin)
	}

	for start := 0; start < len(misses); start += s.batchSize {
		end := start + s.batchSize
		if end > len(misses) {
			end = len(misses)
		}
		batch := misses[start:end]

		types, err := s.lookupBatch(ctx, batch)
		if err != nil {
			logger.L.Warn("Metadata batch lookup failed, proceeding with inference fallback", "batchSize", len(batch), "error", err)
			continue
		}
		for isin, t := range types {
			out[isin] = t
			s.resultCache.Set(isin, t, cache.DefaultExpiration)
		}
	}
	return out
}

// lookupBatch performs one batch call with bounded retries. 429 is handled
// specially: wait the fixed cooldown, reset the window budget and retry the
// same batch, up to maxRetries.
func (s *metadataServiceImpl) lookupBatch(ctx context.Context, isins []string) (map[string]string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := s.waitLimiter(ctx); err != nil {
			return nil, err
		}

		types, retryable, err := s.doLookup(ctx, isins)
		if err == nil {
			return types, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *metadataServiceImpl) doLookup(ctx context.Context, isins []string) (map[string]string, bool, error) {
	body, err := json.Marshal(lookupRequest{ISINs: isins})
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/lookup", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("metadata lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		logger.L.Warn("Metadata lookup rate limited (429), cooling down", "cooldown", s.cooldown429)
		select {
		case <-time.After(s.cooldown429):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
		s.resetLimiter()
		return nil, true, fmt.Errorf("metadata lookup rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode >= 500, fmt.Errorf("metadata lookup returned status %d", resp.StatusCode)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("failed to decode metadata lookup response: %w", err)
	}

	out := make(map[string]string, len(decoded.Results))
	for isin, entry := range decoded.Results {
		if entry.Type != "" {
			out[isin] = entry.Type
		}
	}
	return out, false, nil
}
