package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stagebook/stagebook/internal/catalog"
	"github.com/stagebook/stagebook/internal/clock"
	"github.com/stagebook/stagebook/internal/domain"
	"github.com/stagebook/stagebook/internal/draft"
	"github.com/stagebook/stagebook/internal/guard"
)

type Service struct {
	store draft.Store
	clk   clock.Clock
}

func New(store draft.Store, clk clock.Clock) *Service {
	return &Service{store: store, clk: clk}
}

// Create starts a new draft. A draft comes into existence when the visitor
// first picks a date; the variant may follow later.
func (s *Service) Create(ctx context.Context, date string, variant domain.Variant) (*domain.Draft, error) {
	const op = "service.drafts.Create"

	if _, err := time.ParseInLocation(domain.DateFormat, date, time.Local); err != nil {
		return nil, fmt.Errorf("%s:%w", op, ErrBadDate)
	}

	if variant != "" {
		if _, ok := catalog.ForVariant(variant); !ok {
			return nil, fmt.Errorf("%s:%w", op, ErrUnknownVariant)
		}
	}

	now := s.clk.Now()
	d := &domain.Draft{
		ID:        uuid.New().String(),
		Date:      date,
		Variant:   variant,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return d, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Draft, error) {
	const op = "service.drafts.Get"

	d, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, draft.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrDraftNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return d, nil
}

// UpdateParams carries the fields a step may fill in. Nil means "leave as is".
type UpdateParams struct {
	Date        *string
	Variant     *domain.Variant
	SlotID      *int
	PackageName *string
	Name        *string
	Email       *string
	Phone       *string
	Persons     *int
}

// Update mutates the draft as the visitor advances. Slot selection is
// validated against the variant's catalog; changing the variant drops a slot
// that no longer matches it.
func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*domain.Draft, error) {
	const op = "service.drafts.Update"

	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Date != nil {
		if _, err := time.ParseInLocation(domain.DateFormat, *p.Date, time.Local); err != nil {
			return nil, fmt.Errorf("%s:%w", op, ErrBadDate)
		}
		d.Date = *p.Date
	}

	if p.Variant != nil {
		if _, ok := catalog.ForVariant(*p.Variant); !ok {
			return nil, fmt.Errorf("%s:%w", op, ErrUnknownVariant)
		}
		if d.Variant != *p.Variant {
			d.Slot = nil
		}
		d.Variant = *p.Variant
	}

	if p.SlotID != nil {
		slot, ok := slotInCatalog(d.Variant, *p.SlotID)
		if !ok {
			return nil, fmt.Errorf("%s:%w", op, ErrUnknownSlot)
		}
		d.Slot = &slot
	}

	if p.PackageName != nil {
		d.PackageName = *p.PackageName
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.Phone != nil {
		d.Phone = *p.Phone
	}
	if p.Persons != nil {
		d.Persons = *p.Persons
	}

	d.UpdatedAt = s.clk.Now()

	if err := s.store.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return d, nil
}

// ResolveStep gates navigation: given the step the visitor is trying to
// reach, it returns the step they actually land on. A missing draft resolves
// the same way a nil draft does, so a lost or expired draft degrades to the
// start of the flow instead of erroring.
func (s *Service) ResolveStep(ctx context.Context, id string, target guard.Step) (guard.Step, error) {
	const op = "service.drafts.ResolveStep"

	if !guard.Known(target) {
		return "", fmt.Errorf("%s:%w", op, ErrUnknownStep)
	}

	d, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			return guard.Resolve(target, nil), nil
		}

		return "", err
	}

	return guard.Resolve(target, d), nil
}

// Reset is the explicit "start new booking": the draft is removed entirely,
// contact fields included.
func (s *Service) Reset(ctx context.Context, id string) error {
	const op = "service.drafts.Reset"

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func slotInCatalog(variant domain.Variant, slotID int) (domain.TimeSlot, bool) {
	slotList, ok := catalog.ForVariant(variant)
	if !ok {
		return domain.TimeSlot{}, false
	}

	for _, s := range slotList {
		if s.ID == slotID {
			return s, true
		}
	}

	return domain.TimeSlot{}, false
}
