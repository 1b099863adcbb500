package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// FetchRequest describes the single call an API request makes.
type FetchRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    json.RawMessage
}

// Fetcher performs a FetchRequest and returns the raw response body. A
// non-success status is an error.
type Fetcher interface {
	Fetch(ctx context.Context, req *FetchRequest) ([]byte, error)
}

// HTTPError is returned for responses outside the 2xx range.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// HTTPFetcherConfig configures the HTTP fetcher
type HTTPFetcherConfig struct {
	// Timeout bounds one fetch, including reading the body.
	Timeout time.Duration
	// RateLimit caps outbound fetches per second across all requests.
	RateLimit float64
	RateBurst int
	// MaxBodyBytes caps the response size; 0 means unlimited.
	MaxBodyBytes int64
	UserAgent    string
	// Transport allows injecting a custom round tripper in tests.
	Transport http.RoundTripper
}

// HTTPFetcher is a rate-limited Fetcher. It never retries.
type HTTPFetcher struct {
	config     HTTPFetcherConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPFetcher creates a fetcher, filling unset limits with defaults.
func NewHTTPFetcher(config HTTPFetcherConfig) *HTTPFetcher {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}
	if config.RateBurst == 0 {
		config.RateBurst = 5
	}
	if config.UserAgent == "" {
		config.UserAgent = "dataset-ingestion-service/1.0"
	}

	return &HTTPFetcher{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
	}
}

// Fetch sends req with Content-Type application/json unless req.Headers overrides it.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *FetchRequest) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if hasBody(req.Body) {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", f.config.UserAgent)
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	reader := io.Reader(resp.Body)
	if f.config.MaxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, f.config.MaxBodyBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.config.MaxBodyBytes > 0 && int64(len(data)) > f.config.MaxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", f.config.MaxBodyBytes)
	}

	return data, nil
}

func hasBody(body json.RawMessage) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
