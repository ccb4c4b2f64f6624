package feed

import (
	"encoding/json"

	"github.com/stagebook/stagebook/internal/domain"
)

// Legacy booking documents carry the reserved slot in one of three shapes:
//
//   - "slot": a single designated slot object (current writers)
//   - "last_item": the slot that was last in the visitor's selection list
//   - "slots": a list of slot-like items; the reserved slot is the last one
//
// When several are present the most specific wins: slot, then last_item,
// then slots. NormalizeDocument maps any accepted shape to one canonical
// BookingRecord; nothing past this boundary sees the legacy shapes.

type slotPayload struct {
	ID    int    `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`

	// Older field names.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type bookingPayload struct {
	Slot     *slotPayload  `json:"slot"`
	LastItem *slotPayload  `json:"last_item"`
	Slots    []slotPayload `json:"slots"`
}

// NormalizeDocument converts a stored booking document into the canonical
// record. ok is false when no slot can be resolved from any accepted shape;
// such documents are skipped by the listener.
func NormalizeDocument(doc domain.BookingDocument) (domain.BookingRecord, bool) {
	var p bookingPayload
	if err := json.Unmarshal(doc.Payload, &p); err != nil {
		return domain.BookingRecord{}, false
	}

	var picked *slotPayload

	switch {
	case p.Slot != nil:
		picked = p.Slot
	case p.LastItem != nil:
		picked = p.LastItem
	case len(p.Slots) > 0:
		picked = &p.Slots[len(p.Slots)-1]
	default:
		return domain.BookingRecord{}, false
	}

	slot, ok := canonicalSlot(picked)
	if !ok {
		return domain.BookingRecord{}, false
	}

	return domain.BookingRecord{
		ID:      doc.ID,
		Date:    doc.Date,
		Variant: doc.Variant,
		Slot:    slot,
		Status:  doc.Status,
	}, true
}

func canonicalSlot(p *slotPayload) (domain.TimeSlot, bool) {
	if p.ID <= 0 {
		return domain.TimeSlot{}, false
	}

	start := p.Start
	if start == "" {
		start = p.StartTime
	}

	end := p.End
	if end == "" {
		end = p.EndTime
	}

	return domain.TimeSlot{ID: p.ID, Start: start, End: end}, true
}
