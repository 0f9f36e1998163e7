package event

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const profileInterval = 5 * time.Minute

// Worker consumes events off the bus on its own goroutine, so slow handlers never stall publishers.
type Worker struct {
	name   string
	q      chan Queueable
	handle func(ctx context.Context, event Queueable)

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorker(name string, size int, handle func(ctx context.Context, event Queueable)) *Worker {
	if size < 1 {
		size = 1
	}
	return &Worker{
		name:   name,
		q:      make(chan Queueable, size),
		handle: handle,
	}
}

// Attach subscribes the worker queue to the given event types.
func (w *Worker) Attach(bus *Bus, eventTypes ...string) {
	for _, t := range eventTypes {
		bus.Subscribe(t, func(event Queueable) { w.Enqueue(event) })
	}
}

// Enqueue never blocks; a full queue drops the event.
func (w *Worker) Enqueue(event Queueable) bool {
	select {
	case w.q <- event:
		return true
	default:
		w.getLogEntry().WithField("type", event.Type()).Warn("event queue is full, dropping event")
		return false
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.started = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(runCtx)
	}()
	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = false
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (w *Worker) run(ctx context.Context) {
	l := w.getLogEntry()
	l.Trace("events runner go")
	profileTicker := time.NewTicker(profileInterval)
	defer profileTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain()
			l.Info("shutting down event worker by cancelled context")
			return
		case <-profileTicker.C:
			if qlen := len(w.q); qlen > 0 {
				l.Debugf("unprocessed queue length: %d", qlen)
			}
		case event := <-w.q:
			w.handle(ctx, event)
		}
	}
}

// drain hands whatever is still queued to the handler with a fresh context.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-w.q:
			w.handle(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) getLogEntry() *log.Entry {
	return log.WithField("context", "event_worker").WithField("worker", w.name)
}
