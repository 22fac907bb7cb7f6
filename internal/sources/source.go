// Package sources provides fetch adapters for external content sources.
// Each adapter normalizes its payload into domain.RawItem before anything
// downstream sees it; parsing quirks stay behind this interface.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"chokepoint-radar/internal/domain"
)

// Source fetches raw items from one external content source.
// Sources are best-effort: a failed fetch returns an error and zero items,
// and never affects sibling sources.
type Source interface {
	// Name returns a stable label identifying the source.
	Name() string

	// Fetch retrieves the current batch of items.
	Fetch(ctx context.Context) ([]domain.RawItem, error)
}

// httpGet issues a GET with the given client and decodes nothing: callers
// get the raw body. Non-2xx responses are errors.
func httpGet(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
