package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stagebook/stagebook/internal/domain"
	"github.com/stagebook/stagebook/internal/guard"
)

func draftWith(mutate func(*domain.Draft)) *domain.Draft {
	d := &domain.Draft{ID: "d-1"}
	if mutate != nil {
		mutate(d)
	}
	return d
}

func selected(d *domain.Draft) {
	d.Date = "2026-09-05"
	d.Variant = domain.VariantDeluxe
}

func slotted(d *domain.Draft) {
	selected(d)
	d.Slot = &domain.TimeSlot{ID: 3, Start: "4:00 PM", End: "6:30 PM"}
}

func contactable(d *domain.Draft) {
	slotted(d)
	d.Name = "Asha"
	d.Email = "asha@example.com"
	d.Phone = "+91 98765 43210"
	d.Persons = 4
}

func paid(d *domain.Draft) {
	contactable(d)
	d.OrderID = "order_123"
	d.PaymentID = "pay_456"
	d.PaymentConfirmed = true
}

func TestKnown(t *testing.T) {
	for _, s := range []guard.Step{
		guard.StepHome, guard.StepPackages, guard.StepTheaterSelection,
		guard.StepUserDetails, guard.StepTermsAndPayment, guard.StepConfirmation,
	} {
		assert.True(t, guard.Known(s), "step %s", s)
	}
	assert.False(t, guard.Known(guard.Step("checkout")))
	assert.False(t, guard.Known(guard.Step("")))
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name  string
		step  guard.Step
		draft *domain.Draft
		want  bool
	}{
		{name: "home with nil draft", step: guard.StepHome, draft: nil, want: true},
		{name: "packages with nil draft", step: guard.StepPackages, draft: nil, want: false},
		{name: "packages needs a date", step: guard.StepPackages, draft: draftWith(nil), want: false},
		{
			name: "packages with a date",
			step: guard.StepPackages,
			draft: draftWith(func(d *domain.Draft) {
				d.Date = "2026-09-05"
			}),
			want: true,
		},
		{
			name: "theater selection needs the variant too",
			step: guard.StepTheaterSelection,
			draft: draftWith(func(d *domain.Draft) {
				d.Date = "2026-09-05"
			}),
			want: false,
		},
		{name: "theater selection with full selection", step: guard.StepTheaterSelection, draft: draftWith(selected), want: true},
		{name: "user details needs a slot", step: guard.StepUserDetails, draft: draftWith(selected), want: false},
		{name: "user details with a slot", step: guard.StepUserDetails, draft: draftWith(slotted), want: true},
		{name: "terms needs complete contact", step: guard.StepTermsAndPayment, draft: draftWith(slotted), want: false},
		{
			name: "terms rejects zero persons",
			step: guard.StepTermsAndPayment,
			draft: draftWith(func(d *domain.Draft) {
				contactable(d)
				d.Persons = 0
			}),
			want: false,
		},
		{name: "terms with complete contact", step: guard.StepTermsAndPayment, draft: draftWith(contactable), want: true},
		{name: "confirmation needs a matched payment", step: guard.StepConfirmation, draft: draftWith(contactable), want: false},
		{
			name: "confirmation rejects flag without payment id",
			step: guard.StepConfirmation,
			draft: draftWith(func(d *domain.Draft) {
				contactable(d)
				d.PaymentConfirmed = true
			}),
			want: false,
		},
		{name: "confirmation with matched payment", step: guard.StepConfirmation, draft: draftWith(paid), want: true},
		{name: "unknown step never allowed", step: guard.Step("checkout"), draft: draftWith(paid), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.Allowed(tt.step, tt.draft))
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		target guard.Step
		draft  *domain.Draft
		want   guard.Step
	}{
		{
			name:   "valid target is returned unchanged",
			target: guard.StepUserDetails,
			draft:  draftWith(slotted),
			want:   guard.StepUserDetails,
		},
		{
			name:   "revisiting an earlier step stays allowed",
			target: guard.StepPackages,
			draft:  draftWith(contactable),
			want:   guard.StepPackages,
		},
		{
			name:   "date and variant without a slot lands on theater selection",
			target: guard.StepUserDetails,
			draft:  draftWith(selected),
			want:   guard.StepTheaterSelection,
		},
		{
			name:   "skipping ahead lands on the furthest earned step",
			target: guard.StepTermsAndPayment,
			draft: draftWith(func(d *domain.Draft) {
				d.Date = "2026-09-05"
			}),
			want: guard.StepPackages,
		},
		{
			name:   "empty draft falls back to home",
			target: guard.StepTheaterSelection,
			draft:  draftWith(nil),
			want:   guard.StepHome,
		},
		{
			name:   "nil draft falls back to home",
			target: guard.StepUserDetails,
			draft:  nil,
			want:   guard.StepHome,
		},
		{
			name:   "confirmation without payment goes home even on a full draft",
			target: guard.StepConfirmation,
			draft:  draftWith(contactable),
			want:   guard.StepHome,
		},
		{
			name:   "confirmation with matched payment is entered",
			target: guard.StepConfirmation,
			draft:  draftWith(paid),
			want:   guard.StepConfirmation,
		},
		{
			name:   "unknown step goes home",
			target: guard.Step("checkout"),
			draft:  draftWith(paid),
			want:   guard.StepHome,
		},
		{
			name:   "after payment a cleared draft lands on the receipt",
			target: guard.StepTermsAndPayment,
			draft: draftWith(func(d *domain.Draft) {
				// Payment matched, gating fields already cleared.
				paid(d)
				d.ClearGatingFields()
			}),
			want: guard.StepConfirmation,
		},
		{
			name:   "unpaid miss never lands on confirmation",
			target: guard.StepTermsAndPayment,
			draft: draftWith(func(d *domain.Draft) {
				contactable(d)
				d.Persons = 0
			}),
			want: guard.StepUserDetails,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.Resolve(tt.target, tt.draft))
		})
	}
}

func TestResolveIsMonotonic(t *testing.T) {
	// Filling in more of the draft never resolves to an earlier step.
	stages := []*domain.Draft{
		draftWith(nil),
		draftWith(func(d *domain.Draft) { d.Date = "2026-09-05" }),
		draftWith(selected),
		draftWith(slotted),
		draftWith(contactable),
	}

	order := map[guard.Step]int{
		guard.StepHome:             0,
		guard.StepPackages:         1,
		guard.StepTheaterSelection: 2,
		guard.StepUserDetails:      3,
		guard.StepTermsAndPayment:  4,
	}

	prev := -1
	for i, d := range stages {
		got := guard.Resolve(guard.StepTermsAndPayment, d)
		assert.GreaterOrEqual(t, order[got], prev, "stage %d resolved to %s", i, got)
		prev = order[got]
	}
}
