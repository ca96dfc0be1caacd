package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/nixflix/internal/shared"
	"golang.org/x/time/rate"
)

const userAgent = "nixflix/1.0"

// apiClient issues throttled JSON requests against one base URL.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	decorate   func(*http.Request) // adds session headers, may be nil
}

// newLimiter returns a limiter allowing rps requests per second. rps <= 0 disables throttling.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// do sends body (JSON encoded when non-nil) and decodes a 2xx response into result when non-nil.
// It returns the response status, or 0 when no response arrived.
func (c *apiClient) do(ctx context.Context, op, method, endpoint string, body, result any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(ctx, op, req, result)
}

// send waits on the limiter, performs req and decodes the response.
func (c *apiClient) send(ctx context.Context, op string, req *http.Request, result any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, shared.NewRemoteError(op, 0, err)
	}

	req.Header.Set("User-Agent", userAgent)
	if c.decorate != nil {
		c.decorate(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, shared.NewRemoteError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if msg := strings.TrimSpace(string(detail)); msg != "" {
			return resp.StatusCode, shared.NewRemoteError(op, resp.StatusCode, fmt.Errorf("%s", msg))
		}
		return resp.StatusCode, shared.NewRemoteError(op, resp.StatusCode, nil)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, shared.NewRemoteError(op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return resp.StatusCode, nil
}

// FlexibleID decodes an identifier sent either as a JSON number or a JSON string.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*id = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("%w: id %s", shared.ErrInvalidInput, raw)
		}
		*id = FlexibleID(n.String())
	}
	return nil
}

func (id FlexibleID) String() string { return string(id) }
