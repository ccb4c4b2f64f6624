package availability

import (
	"time"

	"github.com/stagebook/stagebook/internal/catalog"
	"github.com/stagebook/stagebook/internal/domain"
)

// View is the derived availability for one (date, variant) pair. It is never
// persisted; it is recomputed on every feed delivery or explicit refresh.
type View struct {
	Date           string                    `json:"date"`
	Variant        domain.Variant            `json:"variant"`
	Statuses       map[int]domain.SlotStatus `json:"statuses"`
	Slots          []domain.TimeSlot         `json:"slots"`
	AvailableCount int                       `json:"available_count"`
	// Known is false when the booking feed could not be read. Unknown slots
	// must not be offered for booking.
	Known bool `json:"known"`
}

// IsPassed reports whether a slot can no longer be booked because its start
// time is already behind "now". Only today's slots can pass; any other date
// returns false. Comparison is wall-clock only, in whatever location both
// date and now share; no timezone normalization is attempted.
func IsPassed(date time.Time, slot domain.TimeSlot, now time.Time) bool {
	if !sameDay(date, now) {
		return false
	}

	start, err := catalog.MinutesOfDay(slot.Start)
	if err != nil {
		// An unparseable catalog entry is never treated as passed.
		return false
	}

	return start < now.Hour()*60+now.Minute()
}

// Compute merges the slot catalog, the confirmed bookings delivered by the
// feed and the passed-slot predicate into a per-slot status. Booked dominates
// passed: a booking in a window that has already started still reads as
// booked, which is the more informative state for the visitor.
func Compute(variant domain.Variant, slots []domain.TimeSlot, bookings []domain.BookingRecord, date, now time.Time) View {
	booked := make(map[int]bool, len(bookings))
	for _, b := range bookings {
		if b.Status == domain.BookingConfirmed {
			booked[b.Slot.ID] = true
		}
	}

	v := View{
		Date:     date.Format(domain.DateFormat),
		Variant:  variant,
		Statuses: make(map[int]domain.SlotStatus, len(slots)),
		Slots:    slots,
		Known:    true,
	}

	for _, s := range slots {
		switch {
		case booked[s.ID]:
			v.Statuses[s.ID] = domain.SlotBooked
		case IsPassed(date, s, now):
			v.Statuses[s.ID] = domain.SlotPassed
		default:
			v.Statuses[s.ID] = domain.SlotAvailable
			v.AvailableCount++
		}
	}

	return v
}

// Unknown returns the fallback view used when the feed has failed: every slot
// unknown, nothing bookable.
func Unknown(slots []domain.TimeSlot, date string, variant domain.Variant) View {
	v := View{
		Date:     date,
		Variant:  variant,
		Statuses: make(map[int]domain.SlotStatus, len(slots)),
		Slots:    slots,
	}

	for _, s := range slots {
		v.Statuses[s.ID] = domain.SlotUnknown
	}

	return v
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
