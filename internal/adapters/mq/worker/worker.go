package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/pkg/logger"
	"github.com/okian/suggest/pkg/metrics"
)

// Recorder persists one event.
type Recorder interface {
	Record(ctx context.Context, e model.Event) error
}

// Source is where workers receive events. The channel is closed when no more
// events will arrive.
type Source interface {
	Dequeue() <-chan model.Event
}

// dequeueObserver is implemented by sources that track consumption.
type dequeueObserver interface {
	Dequeued()
}

// Worker records events from a Source until the source closes or ctx ends.
type Worker struct {
	source   Source
	recorder Recorder
	name     string
	logger   logger.Logger

	processed atomic.Int64
	failed    atomic.Int64
	done      chan struct{}
}

// New creates a worker.
func New(source Source, recorder Recorder, opts ...Option) *Worker {
	w := &Worker{
		source:   source,
		recorder: recorder,
		name:     "worker",
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes events until the source is closed and drained. When ctx is
// canceled first, events already buffered are still recorded before Run
// returns.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx), events)
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			w.handle(ctx, e)
		}
	}
}

// drain records whatever is buffered without waiting for more.
func (w *Worker) drain(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			w.handle(ctx, e)
		default:
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, e model.Event) { //nolint:gocritic // hugeParam: events travel by value
	if obs, ok := w.source.(dequeueObserver); ok {
		obs.Dequeued()
	}
	// Failures are logged and counted; retries belong to the producer.
	_ = w.process(ctx, e)
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Processed returns how many events were recorded successfully.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// Failed returns how many events could not be recorded.
func (w *Worker) Failed() int64 { return w.failed.Load() }

func (w *Worker) process(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: events travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.recorder.Record(ctx, e); err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		w.logger.Error(ctx, "record failed",
			logger.String("eventID", e.ID),
			logger.String("suggestion", e.SuggestionID),
			logger.Error(err),
		)
		return fmt.Errorf("record event %s: %w", e.ID, err)
	}
	w.processed.Add(1)
	return nil
}

// Default pool configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Pool runs a fixed number of workers over one source.
type Pool struct {
	workers []*Worker
	source  Source
	logger  logger.Logger
	once    sync.Once
}

// NewPool creates a pool. A non-positive count uses a multiple of NumCPU.
func NewPool(count int, source Source, recorder Recorder) *Pool {
	if count < 1 {
		count = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*Worker, count),
		source:  source,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = New(source, recorder, WithName("worker-"+strconv.Itoa(i)))
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker. Workers outlive ctx and stop only when
// Shutdown closes the source, so nothing buffered is dropped.
func (p *Pool) Start(ctx context.Context) {
	runCtx := context.WithoutCancel(ctx)
	for _, w := range p.workers {
		go w.Run(runCtx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Stats returns processed and failed totals across workers.
func (p *Pool) Stats() (processed, failed int64) {
	for _, w := range p.workers {
		processed += w.Processed()
		failed += w.Failed()
	}
	return processed, failed
}

// Shutdown closes the source, if it can be closed, and waits for workers to
// drain what is buffered.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		if closer, ok := p.source.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(err))
			}
		}
	})

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}
