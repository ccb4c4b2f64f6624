package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stagebook/stagebook/internal/clock"
	"github.com/stagebook/stagebook/internal/domain"
	"github.com/stagebook/stagebook/internal/draft"
	"github.com/stagebook/stagebook/internal/guard"
	"github.com/stagebook/stagebook/internal/payment"
	postgresrepo "github.com/stagebook/stagebook/internal/repository/postgres"
	"github.com/stagebook/stagebook/internal/uow"
)

// OrderCreator is the slice of the payment client this service needs.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountCents int, receipt string) (string, error)
}

// BookingWriter persists one confirmed booking inside a transaction managed
// by the caller. Satisfied by *postgresrepo.Store.
type BookingWriter interface {
	CreateBooking(ctx context.Context, tx postgresrepo.DB, b *domain.Booking) error
}

// TxRunner runs a function inside a transaction and fires after-commit
// hooks on success. Satisfied by *uow.UoW.
type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error) error
}

// CacheInvalidator drops the cached availability view for one pool.
type CacheInvalidator interface {
	InvalidateAvailability(ctx context.Context, date string, variant domain.Variant) error
}

// ChangePublisher signals live watchers that a booking set changed.
type ChangePublisher interface {
	PublishBookingsChanged(ctx context.Context, date string, variant domain.Variant) error
}

// RateLimiter throttles order creation per client key. Optional.
type RateLimiter interface {
	Allow(ctx context.Context, id string) (allowed bool, current int64, retryAfter time.Duration, err error)
}

type Config struct {
	// AdvanceCents is the advance charged to confirm a booking.
	AdvanceCents int
}

type Service struct {
	writer  BookingWriter
	tx      TxRunner
	cache   CacheInvalidator
	pubsub  ChangePublisher
	limiter RateLimiter
	drafts  draft.Store
	pay     OrderCreator
	clk     clock.Clock
	cfg     Config
}

func New(
	writer BookingWriter,
	tx TxRunner,
	cache CacheInvalidator,
	pubsub ChangePublisher,
	limiter RateLimiter,
	drafts draft.Store,
	pay OrderCreator,
	clk clock.Clock,
	cfg Config,
) *Service {
	if cfg.AdvanceCents <= 0 {
		cfg.AdvanceCents = 50000
	}

	return &Service{
		writer:  writer,
		tx:      tx,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		drafts:  drafts,
		pay:     pay,
		clk:     clk,
		cfg:     cfg,
	}
}

// CreateOrder registers a provider order for the draft's advance and stores
// the order id on the draft so a later callback can be matched to it.
//
// Returns:
//   - string: the provider order id.
//   - int: the advance amount in cents.
//   - error: booking.ErrNotPayable if the draft has not reached the payment
//     step; booking.ErrRateLimited when order creation is throttled.
func (s *Service) CreateOrder(ctx context.Context, draftID, rlKey string) (string, int, error) {
	const op = "service.booking.CreateOrder"

	d, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return "", 0, fmt.Errorf("%s:%w", op, err)
	}

	if !guard.Allowed(guard.StepTermsAndPayment, d) {
		return "", 0, fmt.Errorf("%s:%w", op, ErrNotPayable)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return "", 0, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return "", 0, fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	orderID, err := s.pay.CreateOrder(ctx, s.cfg.AdvanceCents, "draft:"+draftID)
	if err != nil {
		return "", 0, fmt.Errorf("%s:%w", op, err)
	}

	d.OrderID = orderID
	d.UpdatedAt = s.clk.Now()

	if err := s.drafts.Save(ctx, d); err != nil {
		return "", 0, fmt.Errorf("%s:%w", op, err)
	}

	return orderID, s.cfg.AdvanceCents, nil
}

// SubmitOutcome reacts to the checkout widget's two possible outcomes.
//
// A dismissal leaves the draft intact and sends the visitor back to the
// pre-payment step; there is no retry limit. A success writes the confirmed
// booking, then clears the draft's step-gating fields while keeping contact
// fields for the receipt.
//
// Returns:
//   - guard.Step: the step the visitor lands on.
//   - uuid.UUID: the created booking id (uuid.Nil on dismissal).
//   - error: booking.ErrNoOrder when no provider order exists to match the
//     callback against; booking.ErrBadOutcome on a success with no payment id.
func (s *Service) SubmitOutcome(
	ctx context.Context,
	draftID string,
	out payment.Outcome,
) (guard.Step, uuid.UUID, error) {
	const op = "service.booking.SubmitOutcome"

	d, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%s:%w", op, err)
	}

	if out.Dismissed {
		return guard.Resolve(guard.StepTermsAndPayment, d), uuid.Nil, nil
	}

	if out.PaymentID == "" {
		return "", uuid.Nil, fmt.Errorf("%s:%w", op, ErrBadOutcome)
	}

	if d.OrderID == "" {
		return "", uuid.Nil, fmt.Errorf("%s:%w", op, ErrNoOrder)
	}

	if !guard.Allowed(guard.StepTermsAndPayment, d) {
		return "", uuid.Nil, fmt.Errorf("%s:%w", op, ErrNotPayable)
	}

	// Captured before the gating fields are cleared: the after-commit hooks
	// need them to invalidate the right availability pool.
	date := d.Date
	variant := d.Variant

	b := &domain.Booking{
		ID:           uuid.New(),
		Date:         d.Date,
		Variant:      d.Variant,
		Slot:         *d.Slot,
		PackageName:  d.PackageName,
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		Persons:      d.Persons,
		AdvanceCents: s.cfg.AdvanceCents,
		OrderID:      d.OrderID,
		PaymentID:    out.PaymentID,
		CreatedAt:    s.clk.Now(),
	}

	err = s.tx.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.writer.CreateBooking(ctx, tx, b); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateAvailability(ctx, date, variant)
			_ = s.pubsub.PublishBookingsChanged(ctx, date, variant)
		})

		return nil
	})
	if err != nil {
		return "", uuid.Nil, err
	}

	d.PaymentID = out.PaymentID
	d.PaymentConfirmed = true
	d.ClearGatingFields()
	d.UpdatedAt = s.clk.Now()

	if err := s.drafts.Save(ctx, d); err != nil {
		return "", uuid.Nil, fmt.Errorf("%s:%w", op, err)
	}

	return guard.StepConfirmation, b.ID, nil
}

func (s *Service) loadDraft(ctx context.Context, id string) (*domain.Draft, error) {
	d, err := s.drafts.Load(ctx, id)
	if err != nil {
		if errors.Is(err, draft.ErrNotFound) {
			return nil, ErrDraftNotFound
		}

		return nil, err
	}

	return d, nil
}
