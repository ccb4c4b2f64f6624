package feed

import (
	"context"
	"sync"

	"github.com/stagebook/stagebook/internal/domain"
)

// Source reads the current set of booking documents for one (date, variant)
// pair. Backed by Postgres in production, by a fake in tests.
type Source interface {
	ConfirmedBookings(ctx context.Context, date string, variant domain.Variant) ([]domain.BookingDocument, error)
}

// Notifier blocks inside Subscribe and invokes fn every time the booking set
// for (date, variant) may have changed. It returns when ctx is done or the
// underlying transport fails. Backed by Redis pub/sub in production.
type Notifier interface {
	Subscribe(ctx context.Context, date string, variant domain.Variant, fn func(ctx context.Context)) error
}

// Listener turns a Source and a Notifier into a live feed of confirmed
// bookings. Every delivery is the full current list, a replacement rather
// than a diff; callers must not treat deliveries incrementally.
type Listener struct {
	source   Source
	notifier Notifier
}

func NewListener(source Source, notifier Notifier) *Listener {
	return &Listener{source: source, notifier: notifier}
}

// Subscribe starts a live subscription for (date, variant). onUpdate receives
// the full current list of confirmed bookings on the first snapshot and after
// every change signal; onError receives feed failures (the caller should fall
// back to an unknown availability state and offer a retry).
//
// The returned function cancels the subscription. It is idempotent, and a
// delivery racing the cancellation is dropped: neither callback fires after
// cancel has returned control of the subscription.
func (l *Listener) Subscribe(
	ctx context.Context,
	date string,
	variant domain.Variant,
	onUpdate func(bookings []domain.BookingRecord),
	onError func(err error),
) (unsubscribe func()) {
	subCtx, cancel := context.WithCancel(ctx)

	sub := &subscription{
		listener: l,
		date:     date,
		variant:  variant,
		onUpdate: onUpdate,
		onError:  onError,
	}

	go sub.run(subCtx)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.close()
			cancel()
		})
	}
}

type subscription struct {
	listener *Listener
	date     string
	variant  domain.Variant
	onUpdate func([]domain.BookingRecord)
	onError  func(error)

	mu     sync.Mutex
	closed bool
}

func (s *subscription) run(ctx context.Context) {
	// First snapshot, then rely on change signals. The notifier delivers
	// signals in store order, and deliver runs on this single goroutine, so
	// snapshots reach the caller in order.
	s.deliver(ctx)

	err := s.listener.notifier.Subscribe(ctx, s.date, s.variant, func(ctx context.Context) {
		s.deliver(ctx)
	})
	if err != nil && ctx.Err() == nil {
		s.fail(err)
	}
}

func (s *subscription) deliver(ctx context.Context) {
	docs, err := s.listener.source.ConfirmedBookings(ctx, s.date, s.variant)
	if err != nil {
		if ctx.Err() == nil {
			s.fail(err)
		}
		return
	}

	records := make([]domain.BookingRecord, 0, len(docs))
	for _, doc := range docs {
		if doc.Status != domain.BookingConfirmed {
			continue
		}

		rec, ok := NormalizeDocument(doc)
		if !ok {
			// A document without a resolvable slot cannot block any slot;
			// skip it rather than poison the whole snapshot.
			continue
		}

		records = append(records, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.onUpdate(records)
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.onError(err)
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
