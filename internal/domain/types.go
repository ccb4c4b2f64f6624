package domain

import (
	"time"

	"github.com/google/uuid"
)

// DateFormat is the calendar-day format used on the wire and in storage.
const DateFormat = "2006-01-02"

// Variant identifies a theater type. Each variant has its own availability pool.
type Variant string

const (
	VariantDeluxe Variant = "deluxe"
	VariantRolexe Variant = "rolexe"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotPassed    SlotStatus = "passed"
	// SlotUnknown is reported when the booking feed is unavailable. Unknown
	// slots are treated as not bookable.
	SlotUnknown SlotStatus = "unknown"
)

// TimeSlot is one fixed bookable window. Start and End are 12-hour wall-clock
// strings such as "10:00 AM". Slots are static configuration and never change
// at runtime.
type TimeSlot struct {
	ID    int    `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
)

// BookingDocument is a raw stored booking as it comes out of the store.
// Payload carries the original document body; legacy writers used several
// shapes for the reserved slot, so the payload is only interpreted at the
// feed boundary (see feed.NormalizeDocument).
type BookingDocument struct {
	ID      string
	Date    string
	Variant Variant
	Status  BookingStatus
	Payload []byte
}

// BookingRecord is the canonical form of one confirmed reservation.
type BookingRecord struct {
	ID      string        `json:"id"`
	Date    string        `json:"date"`
	Variant Variant       `json:"variant"`
	Slot    TimeSlot      `json:"slot"`
	Status  BookingStatus `json:"status"`
}

// Booking is a reservation being written on payment completion. Rows are
// created once and never mutated in this flow.
type Booking struct {
	ID           uuid.UUID
	Date         string
	Variant      Variant
	Slot         TimeSlot
	PackageName  string
	Name         string
	Email        string
	Phone        string
	Persons      int
	AdvanceCents int
	OrderID      string
	PaymentID    string
	CreatedAt    time.Time
}

// Draft is the in-progress booking a visitor fills in step by step. It has no
// server-side Booking counterpart until payment succeeds.
type Draft struct {
	ID          string    `json:"id"`
	Date        string    `json:"date,omitempty"`
	Variant     Variant   `json:"variant,omitempty"`
	Slot        *TimeSlot `json:"slot,omitempty"`
	PackageName string    `json:"package_name,omitempty"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Persons     int       `json:"persons,omitempty"`

	// OrderID is issued by the payment provider before checkout opens.
	// PaymentID/PaymentConfirmed are set only when a provider callback was
	// matched to this draft via OrderID.
	OrderID          string `json:"order_id,omitempty"`
	PaymentID        string `json:"payment_id,omitempty"`
	PaymentConfirmed bool   `json:"payment_confirmed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSelection reports whether a date and variant have been picked.
func (d *Draft) HasSelection() bool {
	return d != nil && d.Date != "" && d.Variant != ""
}

// HasSlot reports whether a time slot has been selected.
func (d *Draft) HasSlot() bool {
	return d != nil && d.Slot != nil
}

// ContactComplete reports whether all contact fields are filled in.
func (d *Draft) ContactComplete() bool {
	return d != nil && d.Name != "" && d.Email != "" && d.Phone != "" && d.Persons > 0
}

// ClearGatingFields drops the fields that gate step navigation after a
// successful payment. Contact and payment fields are kept so the confirmation
// step can still render a receipt.
func (d *Draft) ClearGatingFields() {
	d.Date = ""
	d.Variant = ""
	d.Slot = nil
	d.PackageName = ""
	d.OrderID = ""
}
