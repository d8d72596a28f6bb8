package shared

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPClientFactory hands out pooled HTTP clients, one per timeout value.
type HTTPClientFactory struct {
	defaultTimeout time.Duration
	mutex          sync.RWMutex
	clients        map[time.Duration]*http.Client
}

// NewHTTPClientFactory creates a new HTTP client factory
func NewHTTPClientFactory(defaultTimeout time.Duration) *HTTPClientFactory {
	return &HTTPClientFactory{
		defaultTimeout: defaultTimeout,
		clients:        make(map[time.Duration]*http.Client),
	}
}

// Client returns the shared client for timeout, creating it on first use
func (f *HTTPClientFactory) Client(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = f.defaultTimeout
	}

	f.mutex.RLock()
	if client, exists := f.clients[timeout]; exists {
		f.mutex.RUnlock()
		return client
	}
	f.mutex.RUnlock()

	f.mutex.Lock()
	defer f.mutex.Unlock()
	if client, exists := f.clients[timeout]; exists {
		return client
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	f.clients[timeout] = client

	logrus.WithFields(logrus.Fields{
		"component": "HTTPClientFactory",
		"timeout":   timeout,
	}).Debug("Created pooled HTTP client")

	return client
}

// CloseIdleConnections releases pooled connections of every client
func (f *HTTPClientFactory) CloseIdleConnections() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for key, client := range f.clients {
		client.CloseIdleConnections()
		delete(f.clients, key)
	}
}

// BrowserUserAgent is sent to sites that reject non-browser clients.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// SetBrowserLikeHeaders sets the headers a desktop browser sends with a page load
func SetBrowserLikeHeaders(header http.Header, acceptHeader string) {
	header.Set("User-Agent", BrowserUserAgent)
	header.Set("Accept", acceptHeader)
	header.Set("Accept-Language", "en-US,en;q=0.9")
	header.Set("Cache-Control", "no-cache")
}

// ExecuteHTTPRequestWithRetry sends request and retries on transport errors
// and non-200 responses with exponential backoff. maxRetryAttempts of zero
// means a single attempt. The request must not carry a body.
func ExecuteHTTPRequestWithRetry(ctx context.Context, client *http.Client, request *http.Request, maxRetryAttempts int) (*http.Response, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "HTTPClientFactory",
		"url":       request.URL.Redacted(),
	})

	request = request.WithContext(ctx)

	var lastExecutionError error
	for attemptNumber := 0; attemptNumber <= maxRetryAttempts; attemptNumber++ {
		if attemptNumber > 0 {
			backoff := time.Duration(1<<uint(attemptNumber-1)) * time.Second
			backoff += backoff / 10

			logger.WithFields(logrus.Fields{
				"attempt": attemptNumber + 1,
				"backoff": backoff,
			}).Debug("Retrying HTTP request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		httpResponse, err := client.Do(request)
		if err == nil && httpResponse.StatusCode == http.StatusOK {
			return httpResponse, nil
		}

		if err != nil {
			lastExecutionError = fmt.Errorf("attempt %d failed with network error: %w", attemptNumber+1, err)
			if ctx.Err() != nil {
				return nil, lastExecutionError
			}
		} else {
			lastExecutionError = &HTTPStatusError{StatusCode: httpResponse.StatusCode, Attempt: attemptNumber + 1}
			httpResponse.Body.Close()
		}
		logger.WithError(lastExecutionError).Debug("HTTP request attempt failed")
	}

	return nil, fmt.Errorf("HTTP request failed after %d attempts: %w", maxRetryAttempts+1, lastExecutionError)
}

// HTTPStatusError reports a non-200 response.
type HTTPStatusError struct {
	StatusCode int
	Attempt    int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("attempt %d failed with HTTP %d: %s", e.Attempt, e.StatusCode, http.StatusText(e.StatusCode))
}
