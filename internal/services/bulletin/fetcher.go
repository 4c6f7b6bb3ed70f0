package bulletin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/retry"
)

// ErrFetchFailed is returned when a bulletin body cannot be retrieved.
var ErrFetchFailed = errors.New("bulletin fetch failed")

// maxBodyBytes caps a single bulletin page.
const maxBodyBytes = 16 << 20

// HTTPFetcher downloads bulletin pages through a browser-like session.
type HTTPFetcher struct {
	client *http.Client
	policy *retry.Policy
	logger arbor.ILogger
}

// NewHTTPFetcher creates a fetcher. A nil policy makes a single attempt.
func NewHTTPFetcher(client *http.Client, policy *retry.Policy, logger arbor.ILogger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if policy == nil {
		policy = &retry.Policy{}
	}
	return &HTTPFetcher{
		client: client,
		policy: policy,
		logger: logger,
	}
}

// Fetch returns the page body. Every failure, including a non-200 status, is
// retried under the policy.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var body string
	err := f.policy.Do(ctx, f.logger, "fetch "+url, func(ctx context.Context) error {
		var err error
		body, err = f.get(ctx, url)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(data), nil
}
