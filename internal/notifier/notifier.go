// Package notifier delivers domain events to an HTTP webhook from a bounded
// worker pool.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/frahmantamala/attendance-management/internal/core/events"
)

var ErrQueueFull = errors.New("notification queue full")

type Job struct {
	Event   events.Event
	Attempt int
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

// Start runs the worker until the dispatcher closes its job channel.
func (w *Worker) Start(wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			job, ok := <-w.JobChannel
			if !ok {
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
			w.Logger.Debug("worker processing job", "worker_id", w.ID, "event_id", job.Event.EventID())
			processFunc(job)
		}
	}()
}

type Config struct {
	WebhookURL   string
	Timeout      time.Duration
	MaxWorkers   int
	JobQueueSize int
	MaxRetries   int
	RetryBackoff time.Duration
}

type Notifier struct {
	webhookURL   string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	mu     sync.RWMutex
	closed bool
}

func New(config Config, logger *slog.Logger) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	backoff := config.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	n := &Notifier{
		webhookURL:   config.WebhookURL,
		httpClient:   &http.Client{Timeout: timeout},
		maxRetries:   config.MaxRetries,
		retryBackoff: backoff,
		logger:       logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, jobQueueSize),
		workerPool: make(chan chan Job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	n.startWorkerPool()

	return n
}

// Subscribe registers the notifier for every event it forwards.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	handler := func(_ context.Context, event events.Event) error {
		return n.Enqueue(event)
	}
	bus.Subscribe(events.EventTypeRequestSubmitted, handler)
	bus.Subscribe(events.EventTypeRequestDecided, handler)
	bus.Subscribe(events.EventTypeInfoRequestResolved, handler)
}

func (n *Notifier) startWorkerPool() {
	n.once.Do(func() {
		for i := 0; i < n.maxWorkers; i++ {
			worker := NewWorker(i, n.workerPool, n.logger)
			worker.Start(&n.wg, n.deliver)
		}

		n.wg.Add(1)
		go n.dispatch()

		n.logger.Info("notifier worker pool started",
			"max_workers", n.maxWorkers,
			"queue_size", cap(n.jobQueue),
			"webhook_configured", n.webhookURL != "")
	})
}

// dispatch hands queued jobs to idle workers. Once the queue is closed and
// empty it closes every worker's channel.
func (n *Notifier) dispatch() {
	defer n.wg.Done()

	for job := range n.jobQueue {
		jobChannel := <-n.workerPool
		jobChannel <- job
	}

	for i := 0; i < n.maxWorkers; i++ {
		close(<-n.workerPool)
	}
	n.logger.Info("notifier dispatcher stopped")
}

// Enqueue queues event for delivery without blocking. A full queue drops the
// event.
func (n *Notifier) Enqueue(event events.Event) error {
	if n.webhookURL == "" {
		return nil
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return fmt.Errorf("notifier is shut down")
	}

	select {
	case n.jobQueue <- Job{Event: event}:
		return nil
	default:
		n.logger.Warn("notification queue full, dropping event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"queue_capacity", cap(n.jobQueue))
		return ErrQueueFull
	}
}

// Shutdown stops accepting events and waits for queued deliveries. When ctx
// ends first, in-flight requests are aborted.
func (n *Notifier) Shutdown(ctx context.Context) error {
	n.logger.Info("shutting down notifier")

	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.jobQueue)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.cancel()
		n.logger.Info("notifier shutdown complete")
		return nil
	case <-ctx.Done():
		n.cancel()
		<-done
		n.logger.Warn("notifier shutdown cut short", "error", ctx.Err())
		return ctx.Err()
	}
}

type payload struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

func (n *Notifier) deliver(job Job) {
	body, err := json.Marshal(payload{
		ID:         job.Event.EventID(),
		Type:       job.Event.EventType(),
		OccurredAt: job.Event.OccurredAt(),
		Data:       job.Event.Payload(),
	})
	if err != nil {
		n.logger.Error("failed to encode notification", "error", err, "event_id", job.Event.EventID())
		return
	}

	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * n.retryBackoff):
			case <-n.ctx.Done():
				return
			}
		}

		err = n.post(body)
		if err == nil {
			n.logger.Info("notification delivered",
				"event_type", job.Event.EventType(),
				"event_id", job.Event.EventID(),
				"attempt", attempt+1)
			return
		}
		n.logger.Warn("notification attempt failed",
			"event_id", job.Event.EventID(),
			"attempt", attempt+1,
			"error", err)
	}

	n.logger.Error("notification dropped after retries",
		"event_type", job.Event.EventType(),
		"event_id", job.Event.EventID(),
		"error", err)
}

func (n *Notifier) post(body []byte) error {
	req, err := http.NewRequestWithContext(n.ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
