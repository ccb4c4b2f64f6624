package availability_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagebook/stagebook/internal/availability"
	"github.com/stagebook/stagebook/internal/catalog"
	"github.com/stagebook/stagebook/internal/clock"
	"github.com/stagebook/stagebook/internal/domain"
	"github.com/stagebook/stagebook/internal/feed"
)

// fakeSubscriber records the callbacks handed to Subscribe so the test can
// drive deliveries and failures directly.
type fakeSubscriber struct {
	mu         sync.Mutex
	subscribes int
	unsubs     int
	onUpdate   func([]domain.BookingRecord)
	onError    func(error)
}

func (f *fakeSubscriber) Subscribe(
	_ context.Context,
	_ string,
	_ domain.Variant,
	onUpdate func([]domain.BookingRecord),
	onError func(error),
) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	f.onUpdate = onUpdate
	f.onError = onError

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubs++
	}
}

func (f *fakeSubscriber) deliver(recs []domain.BookingRecord) {
	f.mu.Lock()
	fn := f.onUpdate
	f.mu.Unlock()
	fn(recs)
}

func (f *fakeSubscriber) fail(err error) {
	f.mu.Lock()
	fn := f.onError
	f.mu.Unlock()
	fn(err)
}

// gateClock parks every Now call until the test releases it, pinning a feed
// delivery mid-compute.
type gateClock struct {
	entered chan struct{}
	release chan struct{}
}

func (c *gateClock) Now() time.Time {
	c.entered <- struct{}{}
	<-c.release
	return time.Now()
}

type emptySource struct{}

func (emptySource) ConfirmedBookings(context.Context, string, domain.Variant) ([]domain.BookingDocument, error) {
	return nil, nil
}

type idleNotifier struct{}

func (idleNotifier) Subscribe(ctx context.Context, _ string, _ domain.Variant, _ func(ctx context.Context)) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTracker(t *testing.T, sub *fakeSubscriber, now time.Time) *availability.Tracker {
	t.Helper()

	slots, ok := catalog.ForVariant(domain.VariantDeluxe)
	require.True(t, ok)

	tr, err := availability.NewTracker(sub, clock.NewMockClock(now), slots, domain.VariantDeluxe, "2026-09-02")
	require.NoError(t, err)
	return tr
}

func TestTracker(t *testing.T) {
	now := at(t, "2026-09-01", 12, 0)

	t.Run("bad date is rejected", func(t *testing.T) {
		_, err := availability.NewTracker(&fakeSubscriber{}, clock.NewMockClock(now), nil, domain.VariantDeluxe, "tomorrow")
		assert.Error(t, err)
	})

	t.Run("view is unknown until the first delivery", func(t *testing.T) {
		sub := &fakeSubscriber{}
		tr := newTracker(t, sub, now)
		tr.Start(context.Background())
		defer tr.Stop()

		v := tr.Current()
		assert.False(t, v.Known)
		assert.Equal(t, domain.SlotUnknown, v.Statuses[1])
	})

	t.Run("delivery recomputes the view", func(t *testing.T) {
		sub := &fakeSubscriber{}
		tr := newTracker(t, sub, now)
		tr.Start(context.Background())
		defer tr.Stop()

		sub.deliver([]domain.BookingRecord{confirmed(2)})

		v := tr.Current()
		assert.True(t, v.Known)
		assert.Equal(t, domain.VariantDeluxe, v.Variant)
		assert.Equal(t, domain.SlotBooked, v.Statuses[2])
		assert.Equal(t, 4, v.AvailableCount)

		select {
		case got := <-tr.Updates():
			assert.Equal(t, v, got)
		default:
			t.Fatal("no update emitted")
		}
	})

	t.Run("feed failure flips the view to unknown", func(t *testing.T) {
		sub := &fakeSubscriber{}
		tr := newTracker(t, sub, now)
		tr.Start(context.Background())
		defer tr.Stop()

		sub.deliver(nil)
		require.True(t, tr.Current().Known)

		sub.fail(errors.New("feed down"))

		v := tr.Current()
		assert.False(t, v.Known)
		assert.Zero(t, v.AvailableCount)
		for id := 1; id <= 5; id++ {
			assert.Equal(t, domain.SlotUnknown, v.Statuses[id])
		}
	})

	t.Run("retry re-subscribes and recovers", func(t *testing.T) {
		sub := &fakeSubscriber{}
		tr := newTracker(t, sub, now)
		tr.Start(context.Background())
		defer tr.Stop()

		sub.fail(errors.New("feed down"))
		require.False(t, tr.Current().Known)

		tr.Retry(context.Background())
		assert.Equal(t, 2, sub.subscribes)
		assert.Equal(t, 1, sub.unsubs)

		sub.deliver(nil)
		assert.True(t, tr.Current().Known)
	})

	t.Run("a slow reader sees only the latest view", func(t *testing.T) {
		sub := &fakeSubscriber{}
		tr := newTracker(t, sub, now)
		tr.Start(context.Background())
		defer tr.Stop()

		sub.deliver([]domain.BookingRecord{confirmed(1)})
		sub.deliver([]domain.BookingRecord{confirmed(1), confirmed(2)})
		sub.deliver([]domain.BookingRecord{confirmed(1), confirmed(2), confirmed(3)})

		got := <-tr.Updates()
		assert.Equal(t, 2, got.AvailableCount)

		select {
		case <-tr.Updates():
			t.Fatal("stale update left behind")
		default:
		}
	})

	t.Run("stop returns while a delivery is in flight", func(t *testing.T) {
		// The listener invokes callbacks from its own goroutine; Stop must
		// not hold the tracker lock while waiting for that goroutine, or a
		// delivery stuck inside publish deadlocks the teardown.
		clk := &gateClock{entered: make(chan struct{}), release: make(chan struct{})}

		slots, ok := catalog.ForVariant(domain.VariantDeluxe)
		require.True(t, ok)

		listener := feed.NewListener(emptySource{}, idleNotifier{})
		tr, err := availability.NewTracker(listener, clk, slots, domain.VariantDeluxe, "2026-09-02")
		require.NoError(t, err)

		tr.Start(context.Background())

		// The initial snapshot is now mid-compute, holding the listener's
		// delivery lock.
		select {
		case <-clk.entered:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for the delivery to start")
		}

		done := make(chan struct{})
		go func() {
			tr.Stop()
			close(done)
		}()

		clk.release <- struct{}{}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Stop never returned while a feed delivery was in flight")
		}
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		sub := &fakeSubscriber{}
		tr := newTracker(t, sub, now)
		tr.Start(context.Background())

		tr.Stop()
		tr.Stop()
		assert.Equal(t, 1, sub.unsubs)
	})
}
