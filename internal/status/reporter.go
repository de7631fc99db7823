// internal/status/reporter.go
package status

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"kiosk-client/internal/config"
	"kiosk-client/internal/model"
)

// Sender delivers one status event
type Sender interface {
	Send(ctx context.Context, event model.StatusEvent) error
}

// Listener observes status events as they are queued
type Listener interface {
	Publish(event model.StatusEvent)
}

// Reporter forwards status events to the server from a single background
// worker. Enqueue never blocks the caller; delivery is best effort and
// at most once.
type Reporter struct {
	sender       Sender
	pollInterval time.Duration
	logger       *zap.Logger

	mu        sync.Mutex
	queue     []model.StatusEvent
	listeners []Listener
	started   bool

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewReporter creates a stopped reporter
func NewReporter(sender Sender, cfg *config.StatusConfig, logger *zap.Logger) *Reporter {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	return &Reporter{
		sender:       sender,
		pollInterval: interval,
		logger:       logger.With(zap.String("component", "status_reporter")),
		wake:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the worker. Calling Start again, or after Stop, does nothing.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.stop:
		return
	default:
	}
	if r.started {
		return
	}
	r.started = true

	go r.run()
	r.logger.Info("Status reporter started", zap.Duration("poll_interval", r.pollInterval))
}

// AddListener registers a listener for every event enqueued from now on.
// Listeners run on the enqueuing goroutine and must not block.
func (r *Reporter) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Enqueue queues an event for delivery
func (r *Reporter) Enqueue(event model.StatusEvent) {
	r.mu.Lock()
	r.queue = append(r.queue, event)
	listeners := r.listeners
	r.mu.Unlock()

	for _, l := range listeners {
		l.Publish(event)
	}

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of events not yet handed to the sender
func (r *Reporter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Stop signals the worker and waits for it to exit. An in-flight send is
// allowed to finish; queued events are left undelivered.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		close(r.stop)
		started := r.started
		r.mu.Unlock()

		if started {
			<-r.done
		}
		r.logger.Info("Status reporter stopped", zap.Int("pending", r.Pending()))
	})
}

func (r *Reporter) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-r.wake:
		case <-ticker.C:
		}
		r.drain()
	}
}

// drain sends queued events one at a time until the queue is empty or the
// reporter is stopped
func (r *Reporter) drain() {
	for {
		select {
		case <-r.stop:
			return
		default:
		}

		event, ok := r.dequeue()
		if !ok {
			return
		}

		if err := r.sender.Send(context.Background(), event); err != nil {
			r.logger.Error("Failed to send printer status",
				zap.String("status", string(event.Kind)),
				zap.Error(err),
			)
		}
	}
}

func (r *Reporter) dequeue() (model.StatusEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) == 0 {
		return model.StatusEvent{}, false
	}
	event := r.queue[0]
	r.queue[0] = model.StatusEvent{}
	r.queue = r.queue[1:]
	return event, true
}
