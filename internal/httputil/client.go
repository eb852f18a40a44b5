// Package httputil provides a hardened, retrying HTTP client and input sanitization utilities.
package httputil

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// maxBodyBytes caps how much of an upstream response is decoded.
const maxBodyBytes = 10 * 1024 * 1024

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0"

// NewClient creates a hardened HTTP client with secure defaults.
// Transport-level failures and 5xx responses are retried up to retries times.
func NewClient(timeout time.Duration, retries int) *http.Client {
	base := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}

	return withRetries(base, retries)
}

// withRetries wraps base in a retrying client and returns it as a standard *http.Client.
func withRetries(base *http.Client, retries int) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil
	retryClient.HTTPClient = base
	// Hand the last response back instead of an error so callers can still
	// decode bodies of non-2xx replies.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return retryClient.StandardClient()
}

// GetJSON performs a GET request and decodes the JSON body into v.
// The body is decoded whatever the status code; the status is returned so
// callers can decide whether it matters.
func GetJSON(ctx context.Context, client *http.Client, url string, v any) (int, error) {
	if err := ValidateURL(url); err != nil {
		return 0, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}

	return resp.StatusCode, nil
}
