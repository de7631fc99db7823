// internal/auth/token.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"kiosk-client/internal/config"
)

// ErrTokenUnavailable is returned once every attempt to get an app token failed
var ErrTokenUnavailable = errors.New("unable to obtain app token")

type tokenResponse struct {
	Token string `json:"token"`
}

// TokenClient exchanges the app secret for the app token sent with every
// status report
type TokenClient struct {
	url        string
	secret     string
	retries    int
	retryDelay time.Duration
	client     *http.Client
	logger     *zap.Logger
}

// NewTokenClient creates a token client for tokenURL
func NewTokenClient(tokenURL string, cfg *config.RemoteConfig, logger *zap.Logger) *TokenClient {
	retries := cfg.TokenRetries
	if retries < 1 {
		retries = 1
	}

	return &TokenClient{
		url:        tokenURL,
		secret:     cfg.AppSecret,
		retries:    retries,
		retryDelay: cfg.TokenRetryDelay,
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.With(zap.String("component", "auth")),
	}
}

// Fetch requests the app token, retrying on network errors and non-200
// answers
func (c *TokenClient) Fetch(ctx context.Context) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retries; attempt++ {
		token, err := c.fetchOnce(ctx)
		if err == nil {
			c.logger.Info("App token obtained", zap.Int("attempt", attempt))
			return token, nil
		}

		lastErr = err
		c.logger.Warn("Failed to obtain app token",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.retries),
			zap.Error(err),
		)

		if attempt == c.retries {
			break
		}

		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrTokenUnavailable, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %w", ErrTokenUnavailable, c.retries, lastErr)
}

func (c *TokenClient) fetchOnce(ctx context.Context) (string, error) {
	form := url.Values{"app_secret": {c.secret}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.Token == "" {
		return "", errors.New("empty token in response")
	}

	return body.Token, nil
}
