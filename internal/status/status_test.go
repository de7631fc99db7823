package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"kiosk-client/internal/config"
	"kiosk-client/internal/model"
)

type funcSender func(ctx context.Context, event model.StatusEvent) error

func (f funcSender) Send(ctx context.Context, event model.StatusEvent) error {
	return f(ctx, event)
}

func newTestReporter(t *testing.T, sender Sender) *Reporter {
	t.Helper()
	r := NewReporter(sender, &config.StatusConfig{PollInterval: 10 * time.Millisecond}, zaptest.NewLogger(t))
	t.Cleanup(r.Stop)
	return r
}

func TestClientSend(t *testing.T) {
	var got model.StatusEvent
	var token, contentType, method string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		token = r.Header.Get("X-App-Token")
		contentType = r.Header.Get("Content-Type")
		if r.URL.Path != "/api/printer/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/api/printer/status", "secret-token", time.Second, zaptest.NewLogger(t))
	event := model.NewStatusEvent(model.StatusNoPaper, "Out of paper")

	if err := client.Send(t.Context(), event); err != nil {
		t.Fatalf("non-2xx answers should not be errors, got %v", err)
	}
	if method != http.MethodPost || token != "secret-token" || contentType != "application/json" {
		t.Errorf("method=%s token=%s content-type=%s", method, token, contentType)
	}
	if got != event {
		t.Errorf("body = %+v, want %+v", got, event)
	}
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, "t", time.Second, zaptest.NewLogger(t))
	if err := client.Send(t.Context(), model.NewStatusEvent(model.StatusInitOK, "ok")); err == nil {
		t.Error("expected transport error")
	}
}

func TestReporterDeliversInOrder(t *testing.T) {
	received := make(chan model.StatusEvent, 10)
	r := newTestReporter(t, funcSender(func(_ context.Context, e model.StatusEvent) error {
		received <- e
		return nil
	}))
	r.Start()

	kinds := []model.StatusKind{model.StatusInitOK, model.StatusLowPaper, model.StatusNoPaper, model.StatusPaperOK}
	for _, k := range kinds {
		r.Enqueue(model.NewStatusEvent(k, string(k)))
	}

	for i, want := range kinds {
		select {
		case e := <-received:
			if e.Kind != want {
				t.Errorf("event %d = %s, want %s", i, e.Kind, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestReporterDropsFailedEvents(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	delivered := make(chan struct{}, 10)

	r := newTestReporter(t, funcSender(func(_ context.Context, e model.StatusEvent) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		delivered <- struct{}{}
		if e.Kind == model.StatusErrorPrint {
			return errors.New("connection refused")
		}
		return nil
	}))
	r.Start()

	r.Enqueue(model.NewStatusEvent(model.StatusErrorPrint, "boom"))
	r.Enqueue(model.NewStatusEvent(model.StatusPrintOK, "ok"))

	for range 2 {
		select {
		case <-delivered:
		case <-time.After(2 * time.Second):
			t.Fatal("event not attempted")
		}
	}

	// Give a retry the chance to show up
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestEnqueueDoesNotBlockWithoutWorker(t *testing.T) {
	r := newTestReporter(t, funcSender(func(context.Context, model.StatusEvent) error { return nil }))

	for range 1000 {
		r.Enqueue(model.NewStatusEvent(model.StatusNoPaper, "Out of paper"))
	}
	if r.Pending() != 1000 {
		t.Errorf("pending = %d", r.Pending())
	}
}

func TestStopWaitsForInFlightSend(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	r := newTestReporter(t, funcSender(func(context.Context, model.StatusEvent) error {
		close(entered)
		<-release
		return nil
	}))
	r.Start()
	r.Enqueue(model.NewStatusEvent(model.StatusInitOK, "first"))
	r.Enqueue(model.NewStatusEvent(model.StatusNoPaper, "second"))

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not pick up the first event")
	}

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a send was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	if r.Pending() != 1 {
		t.Errorf("pending = %d, want 1", r.Pending())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	r := newTestReporter(t, funcSender(func(context.Context, model.StatusEvent) error { return nil }))
	r.Stop()
	r.Stop()

	r.Start()
	r.Enqueue(model.NewStatusEvent(model.StatusInitOK, "ok"))
	time.Sleep(30 * time.Millisecond)
	if r.Pending() != 1 {
		t.Error("a stopped reporter should not restart")
	}
}

func TestReporterEndToEnd(t *testing.T) {
	bodies := make(chan model.StatusEvent, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e model.StatusEvent
		json.NewDecoder(r.Body).Decode(&e)
		bodies <- e
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", time.Second, zaptest.NewLogger(t))
	r := newTestReporter(t, client)
	r.Start()
	r.Enqueue(model.NewStatusEvent(model.StatusPaperOK, "Paper restored"))

	select {
	case e := <-bodies:
		if e.Kind != model.StatusPaperOK || e.Message != "Paper restored" {
			t.Errorf("body = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("status not posted")
	}
}

type listenerFunc func(event model.StatusEvent)

func (f listenerFunc) Publish(event model.StatusEvent) { f(event) }

func TestListenersSeeEventsBeforeDelivery(t *testing.T) {
	r := newTestReporter(t, funcSender(func(context.Context, model.StatusEvent) error { return nil }))

	var seen []model.StatusKind
	r.AddListener(listenerFunc(func(event model.StatusEvent) {
		seen = append(seen, event.Kind)
	}))

	r.Enqueue(model.NewStatusEvent(model.StatusInitOK, "Printer initialized successfully"))
	r.Enqueue(model.NewStatusEvent(model.StatusLowPaper, "Paper is running low"))

	if len(seen) != 2 || seen[0] != model.StatusInitOK || seen[1] != model.StatusLowPaper {
		t.Errorf("seen = %v", seen)
	}
	if r.Pending() != 2 {
		t.Errorf("pending = %d, listeners must not consume the queue", r.Pending())
	}
}
