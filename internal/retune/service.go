package retune

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/radio-control/retune/internal/logging"
	"github.com/radio-control/retune/internal/observability"
	"github.com/radio-control/retune/internal/wire"
)

// Service owns the run loop that serializes the dispatcher and the work
// loop onto a single goroutine, mirroring the cooperative main loop of the
// control processor: one request or one tick at a time, never both.
type Service struct {
	queue    *Queue
	disp     *Dispatcher
	worker   *Worker
	metrics  *observability.Collector
	log      logging.Logger
	tick     time.Duration
	requests chan submission

	// depth mirrors the queue length for readers outside the loop.
	depth atomic.Int32
}

type submission struct {
	req  wire.Request
	resp chan wire.Response
}

// NewService wires a queue, dispatcher and worker into a run loop ticking
// at the given interval.
func NewService(q *Queue, disp *Dispatcher, worker *Worker, metrics *observability.Collector, tick time.Duration, log logging.Logger) *Service {
	if log == nil {
		log = logging.Noop()
	}
	if tick <= 0 {
		tick = time.Millisecond
	}
	return &Service{
		queue:    q,
		disp:     disp,
		worker:   worker,
		metrics:  metrics,
		log:      log,
		tick:     tick,
		requests: make(chan submission),
	}
}

// QueueLen reports the queue depth as of the last loop iteration. Safe to
// call from any goroutine.
func (s *Service) QueueLen() int {
	return int(s.depth.Load())
}

// Submit hands one host request to the run loop and waits for its
// response. It is safe to call from any goroutine.
func (s *Service) Submit(ctx context.Context, req wire.Request) (wire.Response, error) {
	sub := submission{req: req, resp: make(chan wire.Response, 1)}

	select {
	case s.requests <- sub:
	case <-ctx.Done():
		return wire.Response{}, ctx.Err()
	}

	select {
	case resp := <-sub.resp:
		return resp, nil
	case <-ctx.Done():
		return wire.Response{}, ctx.Err()
	}
}

// Run drives the loop until the context is cancelled. Each iteration
// handles exactly one of: a submitted host request, or one work-loop tick.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.log.Info("retune run loop started", logging.Any("tick", s.tick))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("retune run loop stopped")
			return ctx.Err()
		case sub := <-s.requests:
			sub.resp <- s.disp.Handle(sub.req)
			s.depth.Store(int32(s.queue.Len()))
		case <-ticker.C:
			s.worker.Tick()
			s.depth.Store(int32(s.queue.Len()))
			s.metrics.SetQueueDepth(s.queue.Len())
		}
	}
}
