package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Async runs each dispatch on its own goroutine with a context detached from
// the caller, bounded by timeout. Failures are logged, never returned.
// Events for the same order are delivered one after another in the order
// they were dispatched.
type Async struct {
	next    Dispatcher
	timeout time.Duration
	logger  zerolog.Logger
	wg      sync.WaitGroup

	mu    sync.Mutex
	tails map[int64]chan struct{}
}

func NewAsync(next Dispatcher, timeout time.Duration, logger zerolog.Logger) *Async {
	return &Async{
		next:    next,
		timeout: timeout,
		logger:  logger.With().Str("component", "async_dispatcher").Logger(),
		tails:   make(map[int64]chan struct{}),
	}
}

// Dispatch schedules delivery and returns immediately.
func (a *Async) Dispatch(ctx context.Context, event Event) error {
	detached := context.WithoutCancel(ctx)

	// Queue behind the previous event for this order
	done := make(chan struct{})
	a.mu.Lock()
	prev := a.tails[event.OrderID]
	a.tails[event.OrderID] = done
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.release(event.OrderID, done)

		if prev != nil {
			<-prev
		}

		ctx, cancel := context.WithTimeout(detached, a.timeout)
		defer cancel()

		if err := a.next.Dispatch(ctx, event); err != nil {
			a.logger.Error().Err(err).
				Str("event_id", event.ID.String()).
				Str("kind", string(event.Kind)).
				Int64("order_id", event.OrderID).
				Msg("failed to dispatch event")
		}
	}()

	return nil
}

func (a *Async) release(orderID int64, done chan struct{}) {
	close(done)

	a.mu.Lock()
	if a.tails[orderID] == done {
		delete(a.tails, orderID)
	}
	a.mu.Unlock()
}

// Close waits for in-flight dispatches.
func (a *Async) Close() {
	a.wg.Wait()
}
