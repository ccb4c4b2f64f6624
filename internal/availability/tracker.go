package availability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stagebook/stagebook/internal/clock"
	"github.com/stagebook/stagebook/internal/domain"
)

// Subscriber is the slice of the feed listener the tracker needs. Satisfied
// by *feed.Listener and by fakes in tests.
type Subscriber interface {
	Subscribe(
		ctx context.Context,
		date string,
		variant domain.Variant,
		onUpdate func(bookings []domain.BookingRecord),
		onError func(err error),
	) (unsubscribe func())
}

// Tracker keeps the latest availability view for one (date, variant) pair,
// recomputing on every feed delivery. Last delivery wins. On feed failure the
// view flips to unknown until Retry re-establishes the subscription.
type Tracker struct {
	sub     Subscriber
	clk     clock.Clock
	slots   []domain.TimeSlot
	variant domain.Variant
	date    string
	day     time.Time

	mu    sync.Mutex
	view  View
	unsub func()

	updates chan View
}

func NewTracker(
	sub Subscriber,
	clk clock.Clock,
	slots []domain.TimeSlot,
	variant domain.Variant,
	date string,
) (*Tracker, error) {
	const op = "availability.NewTracker"

	day, err := time.ParseInLocation(domain.DateFormat, date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Tracker{
		sub:     sub,
		clk:     clk,
		slots:   slots,
		variant: variant,
		date:    date,
		day:     day,
		view:    Unknown(slots, date, variant),
		updates: make(chan View, 1),
	}, nil
}

// Start establishes the feed subscription. The view stays unknown until the
// first snapshot arrives.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribeLocked(ctx)
}

// Retry tears down a (possibly failed) subscription and establishes a fresh
// one. Safe to call at any time.
func (t *Tracker) Retry(ctx context.Context) {
	t.mu.Lock()
	unsub := t.unsub
	t.unsub = nil
	t.mu.Unlock()

	// Called unlocked: the listener's cancel waits for an in-flight delivery,
	// and that delivery may be inside publish waiting for t.mu.
	if unsub != nil {
		unsub()
	}

	t.mu.Lock()
	t.subscribeLocked(ctx)
	t.mu.Unlock()
}

// Stop cancels the subscription and waits for an in-flight delivery to
// drain. Idempotent; no view is published after Stop returns.
func (t *Tracker) Stop() {
	t.mu.Lock()
	unsub := t.unsub
	t.unsub = nil
	t.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Current returns the last computed view.
func (t *Tracker) Current() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view
}

// Updates emits each recomputed view. The channel holds only the most recent
// view; a slow reader sees the latest state, not every intermediate one.
func (t *Tracker) Updates() <-chan View {
	return t.updates
}

func (t *Tracker) subscribeLocked(ctx context.Context) {
	t.unsub = t.sub.Subscribe(ctx, t.date, t.variant,
		func(bookings []domain.BookingRecord) {
			t.publish(Compute(t.variant, t.slots, bookings, t.day, t.clk.Now()))
		},
		func(error) {
			t.publish(Unknown(t.slots, t.date, t.variant))
		},
	)
}

func (t *Tracker) publish(v View) {
	t.mu.Lock()
	t.view = v
	t.mu.Unlock()

	// Replace a pending unread view instead of blocking the feed.
	select {
	case <-t.updates:
	default:
	}

	select {
	case t.updates <- v:
	default:
	}
}
