// Package fetch materializes post content for a push notification from the
// origin server. It runs only while the UI runtime is detached; a live in-app
// sync would otherwise fetch the same post twice.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chatkit/push-dispatch-go/internal/domain/push"
	"github.com/chatkit/push-dispatch-go/internal/pkg/credentials"
)

// Client implements push.DataFetcher over the origin server's REST API.
type Client struct {
	httpClient *http.Client
	creds      credentials.Store
}

// NewClient creates a data-fetch client.
func NewClient(creds credentials.Store) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		creds:      creds,
	}
}

// FetchAndStore retrieves the post behind the notification. It returns nil
// with no error when the fetch is skipped because the UI runtime is active.
func (c *Client) FetchAndStore(ctx context.Context, ev push.Event, uiActive bool) (map[string]string, error) {
	if uiActive {
		return nil, nil
	}
	if ev.ServerURL == "" || ev.PostID == "" {
		return nil, fmt.Errorf("fetch skipped: missing server url or post id")
	}

	url := fmt.Sprintf("%s/posts/%s", ev.ServerURL, ev.PostID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}

	if src := c.creds.TokenSource(ev.ServerURL); src != nil {
		token, err := src.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read bearer credential: %w", err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transport error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch rejected [%d]: %s", resp.StatusCode, string(body))
	}

	var fields map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to parse fetched post: %w", err)
	}

	data := make(map[string]string, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			data[k] = s
		}
	}
	return data, nil
}
