package feed_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagebook/stagebook/internal/domain"
	"github.com/stagebook/stagebook/internal/feed"
)

type fakeSource struct {
	mu   sync.Mutex
	docs []domain.BookingDocument
	err  error
}

func (f *fakeSource) set(docs []domain.BookingDocument, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = docs
	f.err = err
}

func (f *fakeSource) ConfirmedBookings(_ context.Context, _ string, _ domain.Variant) ([]domain.BookingDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs, f.err
}

// fakeNotifier blocks in Subscribe and fires fn once per value sent on
// signals, mirroring the pub/sub notifier.
type fakeNotifier struct {
	signals chan struct{}
	err     error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{signals: make(chan struct{})}
}

func (f *fakeNotifier) Subscribe(ctx context.Context, _ string, _ domain.Variant, fn func(ctx context.Context)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-f.signals:
			if !ok {
				return f.err
			}
			fn(ctx)
		}
	}
}

func waitUpdate(t *testing.T, ch <-chan []domain.BookingRecord) []domain.BookingRecord {
	t.Helper()
	select {
	case recs := <-ch:
		return recs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed delivery")
		return nil
	}
}

func TestListenerSubscribe(t *testing.T) {
	t.Run("initial snapshot is delivered and filtered", func(t *testing.T) {
		src := &fakeSource{}
		src.set([]domain.BookingDocument{
			doc(`{"slot":{"id":1,"start":"10:00 AM","end":"12:30 PM"}}`),
			{
				ID: "b-pending", Date: "2026-09-01", Variant: domain.VariantDeluxe,
				Status:  domain.BookingPending,
				Payload: []byte(`{"slot":{"id":2}}`),
			},
			doc(`{"not":"a slot"}`),
		}, nil)

		l := feed.NewListener(src, newFakeNotifier())

		updates := make(chan []domain.BookingRecord, 4)
		unsub := l.Subscribe(context.Background(), "2026-09-01", domain.VariantDeluxe,
			func(recs []domain.BookingRecord) { updates <- recs },
			func(err error) { t.Errorf("unexpected feed error: %v", err) },
		)
		defer unsub()

		recs := waitUpdate(t, updates)
		require.Len(t, recs, 1)
		assert.Equal(t, 1, recs[0].Slot.ID)
	})

	t.Run("each change signal delivers the full current list", func(t *testing.T) {
		src := &fakeSource{}
		src.set(nil, nil)
		notifier := newFakeNotifier()

		l := feed.NewListener(src, notifier)

		updates := make(chan []domain.BookingRecord, 4)
		unsub := l.Subscribe(context.Background(), "2026-09-01", domain.VariantDeluxe,
			func(recs []domain.BookingRecord) { updates <- recs },
			func(err error) { t.Errorf("unexpected feed error: %v", err) },
		)
		defer unsub()

		assert.Empty(t, waitUpdate(t, updates))

		src.set([]domain.BookingDocument{
			doc(`{"slot":{"id":2,"start":"1:00 PM","end":"3:30 PM"}}`),
			doc(`{"slot":{"id":4,"start":"7:00 PM","end":"9:30 PM"}}`),
		}, nil)
		notifier.signals <- struct{}{}

		recs := waitUpdate(t, updates)
		require.Len(t, recs, 2)
		assert.Equal(t, 2, recs[0].Slot.ID)
		assert.Equal(t, 4, recs[1].Slot.ID)
	})

	t.Run("source failure reaches onError", func(t *testing.T) {
		src := &fakeSource{}
		src.set(nil, errors.New("connection refused"))

		l := feed.NewListener(src, newFakeNotifier())

		errs := make(chan error, 1)
		unsub := l.Subscribe(context.Background(), "2026-09-01", domain.VariantDeluxe,
			func([]domain.BookingRecord) { t.Error("unexpected delivery") },
			func(err error) { errs <- err },
		)
		defer unsub()

		select {
		case err := <-errs:
			assert.ErrorContains(t, err, "connection refused")
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for feed error")
		}
	})

	t.Run("notifier failure reaches onError", func(t *testing.T) {
		src := &fakeSource{}
		notifier := newFakeNotifier()
		notifier.err = errors.New("pubsub torn down")

		l := feed.NewListener(src, notifier)

		updates := make(chan []domain.BookingRecord, 1)
		errs := make(chan error, 1)
		unsub := l.Subscribe(context.Background(), "2026-09-01", domain.VariantDeluxe,
			func(recs []domain.BookingRecord) { updates <- recs },
			func(err error) { errs <- err },
		)
		defer unsub()

		waitUpdate(t, updates)
		close(notifier.signals)

		select {
		case err := <-errs:
			assert.ErrorContains(t, err, "pubsub torn down")
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for feed error")
		}
	})

	t.Run("unsubscribe stops deliveries and is idempotent", func(t *testing.T) {
		src := &fakeSource{}
		notifier := newFakeNotifier()

		l := feed.NewListener(src, notifier)

		updates := make(chan []domain.BookingRecord, 4)
		unsub := l.Subscribe(context.Background(), "2026-09-01", domain.VariantDeluxe,
			func(recs []domain.BookingRecord) { updates <- recs },
			func(error) {},
		)

		waitUpdate(t, updates)

		unsub()
		unsub()

		// A signal after cancellation must not produce a delivery.
		select {
		case notifier.signals <- struct{}{}:
		default:
		}

		select {
		case <-updates:
			t.Fatal("delivery after unsubscribe")
		case <-time.After(100 * time.Millisecond):
		}
	})
}
