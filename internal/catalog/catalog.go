package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stagebook/stagebook/internal/domain"
)

var ErrBadClock = errors.New("bad 12-hour clock string")

// Slot catalogs are fixed per variant. The two theaters happen to share the
// same windows today, but each variant owns its own sequence.
var deluxeSlots = []domain.TimeSlot{
	{ID: 1, Start: "10:00 AM", End: "12:30 PM"},
	{ID: 2, Start: "1:00 PM", End: "3:30 PM"},
	{ID: 3, Start: "4:00 PM", End: "6:30 PM"},
	{ID: 4, Start: "7:00 PM", End: "9:30 PM"},
	{ID: 5, Start: "10:00 PM", End: "12:30 AM"},
}

var rolexeSlots = []domain.TimeSlot{
	{ID: 1, Start: "10:00 AM", End: "12:30 PM"},
	{ID: 2, Start: "1:00 PM", End: "3:30 PM"},
	{ID: 3, Start: "4:00 PM", End: "6:30 PM"},
	{ID: 4, Start: "7:00 PM", End: "9:30 PM"},
	{ID: 5, Start: "10:00 PM", End: "12:30 AM"},
}

// ForVariant returns the slot catalog for a variant. The returned slice is a
// copy; callers may not mutate the catalog.
func ForVariant(v domain.Variant) ([]domain.TimeSlot, bool) {
	var src []domain.TimeSlot

	switch v {
	case domain.VariantDeluxe:
		src = deluxeSlots
	case domain.VariantRolexe:
		src = rolexeSlots
	default:
		return nil, false
	}

	out := make([]domain.TimeSlot, len(src))
	copy(out, src)

	return out, true
}

func Variants() []domain.Variant {
	return []domain.Variant{domain.VariantDeluxe, domain.VariantRolexe}
}

// MinutesOfDay parses a 12-hour wall-clock string ("10:00 AM", "12:30 pm")
// into minutes since midnight. 12:xx AM maps to 0:xx, 12:xx PM stays 12:xx.
func MinutesOfDay(clock string) (int, error) {
	const op = "catalog.MinutesOfDay"

	fields := strings.Fields(strings.TrimSpace(clock))
	if len(fields) != 2 {
		return 0, fmt.Errorf("%s: %q: %w", op, clock, ErrBadClock)
	}

	hm := strings.Split(fields[0], ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("%s: %q: %w", op, clock, ErrBadClock)
	}

	hour, err := strconv.Atoi(hm[0])
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("%s: %q: %w", op, clock, ErrBadClock)
	}

	minute, err := strconv.Atoi(hm[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%s: %q: %w", op, clock, ErrBadClock)
	}

	switch strings.ToUpper(fields[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, fmt.Errorf("%s: %q: %w", op, clock, ErrBadClock)
	}

	return hour*60 + minute, nil
}
