// internal/status/client.go
package status

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"kiosk-client/internal/model"
)

// HTTPDoer abstracts HTTP client operations for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ HTTPDoer = (*http.Client)(nil)

// Client posts status events to the remote status endpoint
type Client struct {
	url    string
	token  string
	doer   HTTPDoer
	logger *zap.Logger
}

// NewClient creates a status client for url authenticated with token
func NewClient(url, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return NewClientWithDoer(url, token, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithDoer creates a status client on a custom HTTP doer
func NewClientWithDoer(url, token string, doer HTTPDoer, logger *zap.Logger) *Client {
	return &Client{
		url:    url,
		token:  token,
		doer:   doer,
		logger: logger.With(zap.String("component", "status_client")),
	}
}

// Send posts one event. Only transport failures are returned; any HTTP
// answer, 2xx or not, counts as delivered.
func (c *Client) Send(ctx context.Context, event model.StatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode status event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("X-App-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send status: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	fields := []zap.Field{
		zap.String("status", string(event.Kind)),
		zap.Int("status_code", resp.StatusCode),
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("Status rejected by server", fields...)
	} else {
		c.logger.Debug("Status sent", fields...)
	}
	return nil
}
