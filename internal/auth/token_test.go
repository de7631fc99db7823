package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"kiosk-client/internal/config"
)

func newTestClient(t *testing.T, url string, retries int) *TokenClient {
	t.Helper()
	return NewTokenClient(url, &config.RemoteConfig{
		AppSecret:       "s3cret",
		TokenRetries:    retries,
		TokenRetryDelay: 5 * time.Millisecond,
		RequestTimeout:  time.Second,
	}, zaptest.NewLogger(t))
}

func TestFetchToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.PostFormValue("app_secret"); got != "s3cret" {
			t.Errorf("app_secret = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"token":"abc123"}`)
	}))
	defer server.Close()

	token, err := newTestClient(t, server.URL, 3).Fetch(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if token != "abc123" {
		t.Errorf("token = %q", token)
	}
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"token":"third-time"}`)
	}))
	defer server.Close()

	token, err := newTestClient(t, server.URL, 3).Fetch(t.Context())
	if err != nil || token != "third-time" {
		t.Fatalf("Fetch = %q, %v", token, err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetchGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 3).Fetch(t.Context())
	if !errors.Is(err, ErrTokenUnavailable) {
		t.Fatalf("Fetch error = %v, want ErrTokenUnavailable", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetchRejectsEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token":""}`)
	}))
	defer server.Close()

	if _, err := newTestClient(t, server.URL, 1).Fetch(t.Context()); err == nil {
		t.Error("empty token should be an error")
	}
}

func TestFetchHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 5)
	client.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := client.Fetch(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Fetch error = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Fetch ignored the context")
	}
}
