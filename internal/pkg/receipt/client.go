// Package receipt delivers push acknowledgments back to the origin server.
// Delivery is best effort: the caller treats any failure as "no response" and
// keeps processing the notification.
package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/chatkit/push-dispatch-go/internal/pkg/credentials"
)

const ackPath = "/acknowledge"

// RetryPolicy controls the backoff schedule. The zero value is replaced with
// the defaults below.
type RetryPolicy struct {
	MaxRetries        int           // retries after the first attempt
	BackoffBase       float64       // exponential base
	BackoffScale      float64       // seconds multiplier
	PerAttemptTimeout time.Duration // connect + transfer budget per attempt
	TotalTimeout      time.Duration // whole-delivery budget, attempts and pauses included
}

// DefaultRetryPolicy is 3 attempts total with 1s and 2s pauses, a 30s
// per-attempt timeout and a 35s cap on the whole delivery.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BackoffBase:       2,
		BackoffScale:      0.5,
		PerAttemptTimeout: 30 * time.Second,
		TotalTimeout:      35 * time.Second,
	}
}

// Request identifies the acknowledgment to deliver.
type Request struct {
	AckID      string
	ServerURL  string
	PostID     string
	Type       string
	IsIDLoaded bool
}

// Response is the parsed acknowledgment response. Data carries supplemental
// fields the caller may merge into the notification's working copy.
type Response struct {
	ServerURL string
	Data      map[string]string
}

// APIError is a non-2xx acknowledgment response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("acknowledgment rejected [%d]: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt. Client
// errors are not: the server understood the ack and refused it.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500
}

// Client posts acknowledgments with bearer credentials and bounded retries.
type Client struct {
	httpClient *http.Client
	creds      credentials.Store
	policy     RetryPolicy

	// sleep is swappable in tests. It must return early when ctx ends so
	// the total delivery budget cuts a pending backoff short.
	sleep func(ctx context.Context, d time.Duration)
}

// NewClient creates an acknowledgment delivery client.
func NewClient(creds credentials.Store, policy RetryPolicy) *Client {
	if policy.PerAttemptTimeout == 0 {
		policy = DefaultRetryPolicy()
	}
	if policy.TotalTimeout == 0 {
		policy.TotalTimeout = DefaultRetryPolicy().TotalTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: policy.PerAttemptTimeout},
		creds:      creds,
		policy:     policy,
		sleep:      sleepWithContext,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

type ackBody struct {
	AckID      string `json:"ack_id"`
	PostID     string `json:"post_id,omitempty"`
	Type       string `json:"type"`
	IsIDLoaded bool   `json:"is_id_loaded"`
}

// Deliver sends the acknowledgment, retrying per the policy. It is invoked at
// most once per event carrying an ack id; idempotence across process restarts
// rests on the server keying receipts by ack id.
func (c *Client) Deliver(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(ackBody{
		AckID:      req.AckID,
		PostID:     req.PostID,
		Type:       req.Type,
		IsIDLoaded: req.IsIDLoaded,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal acknowledgment: %w", err)
	}

	// The whole delivery, pauses included, runs against one budget.
	ctx, cancel := context.WithTimeout(ctx, c.policy.TotalTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			pause := time.Duration(c.policy.BackoffScale * math.Pow(c.policy.BackoffBase, float64(attempt)) * float64(time.Second))
			c.sleep(ctx, pause)
			if ctx.Err() != nil {
				return nil, fmt.Errorf("acknowledgment cancelled: %w", ctx.Err())
			}
		}

		resp, err := c.attempt(ctx, req, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acknowledgment cancelled: %w", ctx.Err())
		}
		slog.Warn("Acknowledgment attempt failed",
			"ack_id", req.AckID, "attempt", attempt+1, "error", err)
	}

	return nil, fmt.Errorf("acknowledgment exhausted retries: %w", lastErr)
}

func (c *Client) attempt(ctx context.Context, req Request, payload []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.ServerURL+ackPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build acknowledgment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if src := c.creds.TokenSource(req.ServerURL); src != nil {
		token, err := src.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read bearer credential: %w", err)
		}
		token.SetAuthHeader(httpReq)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("acknowledgment transport error: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	parsed := &Response{Data: map[string]string{}}
	if len(body) > 0 {
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("failed to parse acknowledgment response: %w", err)
		}
		for k, v := range fields {
			if s, ok := v.(string); ok {
				parsed.Data[k] = s
			}
		}
		parsed.ServerURL = parsed.Data["server_url"]
	}
	return parsed, nil
}
