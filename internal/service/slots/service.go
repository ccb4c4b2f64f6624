package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/stagebook/stagebook/internal/availability"
	"github.com/stagebook/stagebook/internal/catalog"
	"github.com/stagebook/stagebook/internal/clock"
	"github.com/stagebook/stagebook/internal/domain"
	"github.com/stagebook/stagebook/internal/feed"
	postgresrepo "github.com/stagebook/stagebook/internal/repository/postgres"
	redisrepo "github.com/stagebook/stagebook/internal/repository/redis"
)

type Config struct {
	// AvailabilityTTL bounds how stale a cached view may be. Watchers get
	// pushed updates; the cache only serves one-shot reads.
	AvailabilityTTL time.Duration
}

type Service struct {
	store    *postgresrepo.Store
	cache    *redisrepo.Cache
	pubsub   *redisrepo.BookingsPubSub
	listener *feed.Listener
	clk      clock.Clock
	cfg      Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.BookingsPubSub,
	clk clock.Clock,
	cfg Config,
) *Service {
	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	return &Service{
		store:    store,
		cache:    cache,
		pubsub:   pubsub,
		listener: feed.NewListener(store.Bookings(), pubsub),
		clk:      clk,
		cfg:      cfg,
	}
}

// Catalog returns the fixed slot sequence for a variant.
func (s *Service) Catalog(variant domain.Variant) ([]domain.TimeSlot, error) {
	const op = "service.slots.Catalog"

	slots, ok := catalog.ForVariant(variant)
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, ErrUnknownVariant)
	}

	return slots, nil
}

// View computes the availability view for (variant, date), served from a
// short-lived cache. On a store failure it returns the unknown view together
// with ErrFeedUnavailable so the caller can degrade instead of reporting
// slots as free.
func (s *Service) View(ctx context.Context, variant domain.Variant, date string) (availability.View, error) {
	const op = "service.slots.View"

	slotList, ok := catalog.ForVariant(variant)
	if !ok {
		return availability.View{}, fmt.Errorf("%s:%w", op, ErrUnknownVariant)
	}

	day, err := time.ParseInLocation(domain.DateFormat, date, time.Local)
	if err != nil {
		return availability.View{}, fmt.Errorf("%s:%w", op, ErrBadDate)
	}

	key := redisrepo.KeyAvailability(variant, date)

	view, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (availability.View, error) {
			bookings, err := s.bookings(ctx, variant, date)
			if err != nil {
				return availability.View{}, err
			}

			return availability.Compute(variant, slotList, bookings, day, s.clk.Now()), nil
		},
	)
	if err != nil {
		return availability.Unknown(slotList, date, variant),
			fmt.Errorf("%s:%w: %v", op, ErrFeedUnavailable, err)
	}

	return view, nil
}

// Bookings returns the normalized confirmed bookings for (variant, date).
func (s *Service) Bookings(ctx context.Context, variant domain.Variant, date string) ([]domain.BookingRecord, error) {
	const op = "service.slots.Bookings"

	if _, ok := catalog.ForVariant(variant); !ok {
		return nil, fmt.Errorf("%s:%w", op, ErrUnknownVariant)
	}

	if _, err := time.ParseInLocation(domain.DateFormat, date, time.Local); err != nil {
		return nil, fmt.Errorf("%s:%w", op, ErrBadDate)
	}

	records, err := s.bookings(ctx, variant, date)
	if err != nil {
		return nil, fmt.Errorf("%s:%w: %v", op, ErrFeedUnavailable, err)
	}

	return records, nil
}

// Refresh is the app-level availability bump: it drops the cached view and
// signals every live watcher to re-query.
func (s *Service) Refresh(ctx context.Context, variant domain.Variant, date string) error {
	const op = "service.slots.Refresh"

	if _, ok := catalog.ForVariant(variant); !ok {
		return fmt.Errorf("%s:%w", op, ErrUnknownVariant)
	}

	if err := s.cache.InvalidateAvailability(ctx, date, variant); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.pubsub.PublishBookingsChanged(ctx, date, variant); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Watch returns a started tracker streaming availability views for
// (variant, date) until Stop is called.
func (s *Service) Watch(ctx context.Context, variant domain.Variant, date string) (*availability.Tracker, error) {
	const op = "service.slots.Watch"

	slotList, ok := catalog.ForVariant(variant)
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, ErrUnknownVariant)
	}

	tracker, err := availability.NewTracker(s.listener, s.clk, slotList, variant, date)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, ErrBadDate)
	}

	tracker.Start(ctx)

	return tracker, nil
}

func (s *Service) bookings(ctx context.Context, variant domain.Variant, date string) ([]domain.BookingRecord, error) {
	docs, err := s.store.Bookings().ConfirmedBookings(ctx, date, variant)
	if err != nil {
		return nil, err
	}

	records := make([]domain.BookingRecord, 0, len(docs))
	for _, doc := range docs {
		if doc.Status != domain.BookingConfirmed {
			continue
		}
		if rec, ok := feed.NormalizeDocument(doc); ok {
			records = append(records, rec)
		}
	}

	return records, nil
}
