package httpgin

import "github.com/stagebook/stagebook/internal/domain"

type CreateDraftRequest struct {
	Date    string `json:"date" binding:"required"`
	Variant string `json:"variant"`
}

type UpdateDraftRequest struct {
	Date        *string `json:"date"`
	Variant     *string `json:"variant"`
	SlotID      *int    `json:"slot_id"`
	PackageName *string `json:"package_name"`
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Persons     *int    `json:"persons"`
}

type PaymentOutcomeRequest struct {
	PaymentID string `json:"payment_id"`
	Dismissed bool   `json:"dismissed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// UnavailableResponse is returned when the booking feed cannot be read: the
// view reports every slot unknown and the client's next action is a retry.
type UnavailableResponse struct {
	Error string `json:"error"`
	View  any    `json:"view"`
	Retry bool   `json:"retry"`
}

type CreateOrderResponse struct {
	OrderID      string `json:"order_id"`
	AdvanceCents int    `json:"advance_cents"`
}

type PaymentOutcomeResponse struct {
	Step      string `json:"step"`
	BookingID string `json:"booking_id,omitempty"`
}

type ResolveStepResponse struct {
	Requested  string `json:"requested"`
	Step       string `json:"step"`
	Redirected bool   `json:"redirected"`
}

type CatalogResponse struct {
	Variant domain.Variant    `json:"variant"`
	Slots   []domain.TimeSlot `json:"slots"`
}
