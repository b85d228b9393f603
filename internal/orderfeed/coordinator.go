// Package orderfeed keeps an in-memory snapshot of a restaurant's orders
// in sync with the external store.
//
// Two triggers feed one refresh routine: a fixed-interval poll and the
// push-based change subscription. Neither carries data - every refresh
// refetches the full authoritative set and replaces the snapshot wholesale,
// so the two sources need no ordering guarantee and no conflict
// resolution; whichever refresh completes last wins.
package orderfeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/orderdeck/orderdeck/internal/order"
)

// DefaultInterval is the poll cadence of the displays.
const DefaultInterval = 5 * time.Second

// FetchFunc retrieves the full authoritative order set.
type FetchFunc func(ctx context.Context) ([]order.Order, error)

// Coordinator owns the order snapshot for the currently mounted view.
// All refreshes run on a single goroutine: triggers that arrive while a
// refresh is in flight collapse into one trailing refresh instead of
// queueing. Stop tears down the ticker, any attached subscription, and the
// loop; a refresh racing with Stop has its result dropped.
type Coordinator struct {
	fetch    FetchFunc
	interval time.Duration

	trigger chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}

	mu      sync.Mutex
	orders  []order.Order
	lastErr error
	subs    []func()
	closers []func() error
	stopped bool
}

// New creates a coordinator; interval <= 0 uses DefaultInterval.
func New(fetch FetchFunc, interval time.Duration) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Coordinator{
		fetch:    fetch,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Subscribe registers fn to run after every refresh attempt (success or
// failure). Must be called before Start.
func (c *Coordinator) Subscribe(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// AttachCloser ties an external resource (the realtime subscription) to
// the coordinator's lifetime; Stop closes it.
func (c *Coordinator) AttachCloser(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, fn)
}

// Start performs an initial refresh and begins the poll loop. The
// coordinator stops when Stop is called or ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.loop(ctx)
}

// Poke requests a refresh, e.g. from a change notification. If a refresh
// is already pending the poke is absorbed; at most one trailing refresh is
// remembered.
func (c *Coordinator) Poke() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Stop tears down the loop, the ticker, and any attached subscription.
// Idempotent; safe to call from any goroutine.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	closers := c.closers
	c.mu.Unlock()

	started := c.cancel != nil
	if started {
		c.cancel()
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			slog.Debug("orderfeed closer failed", "error", err)
		}
	}
	if started {
		<-c.done
	}
}

// Snapshot returns a copy of the current order list and the error of the
// most recent refresh (nil when it succeeded). A failed refresh leaves the
// previous snapshot in place.
func (c *Coordinator) Snapshot() ([]order.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]order.Order(nil), c.orders...), c.lastErr
}

// loop is the single-writer refresh routine.
func (c *Coordinator) loop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx)
		case <-c.trigger:
			c.refresh(ctx)
		}
	}
}

// refresh refetches the full set and replaces the snapshot. Results that
// land after cancellation are dropped so a stale response cannot resurrect
// a stopped view.
func (c *Coordinator) refresh(ctx context.Context) {
	orders, err := c.fetch(ctx)

	select {
	case <-ctx.Done():
		return
	default:
	}

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
	} else {
		c.orders = orders
		c.lastErr = nil
	}
	subs := c.subs
	c.mu.Unlock()

	if err != nil {
		slog.Debug("order refresh failed", "error", err)
	}
	for _, fn := range subs {
		fn()
	}
}
