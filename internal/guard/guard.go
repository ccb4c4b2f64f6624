package guard

import "github.com/stagebook/stagebook/internal/domain"

// Step is one named screen in the booking flow. The flow approximates a
// linear state machine: each step declares a predicate over the draft that
// must hold to enter it.
type Step string

const (
	StepHome             Step = "home"
	StepPackages         Step = "packages"
	StepTheaterSelection Step = "theater-selection"
	StepUserDetails      Step = "user-details"
	StepTermsAndPayment  Step = "terms-and-payment"
	StepConfirmation     Step = "confirmation"
)

type rule struct {
	step    Step
	allowed func(d *domain.Draft) bool
}

// Ordered from first to last. Resolve walks this table backwards to find the
// furthest step the draft has earned.
var rules = []rule{
	{StepHome, func(*domain.Draft) bool { return true }},
	{StepPackages, func(d *domain.Draft) bool { return d != nil && d.Date != "" }},
	{StepTheaterSelection, func(d *domain.Draft) bool { return d.HasSelection() }},
	{StepUserDetails, func(d *domain.Draft) bool { return d.HasSelection() && d.HasSlot() }},
	{StepTermsAndPayment, func(d *domain.Draft) bool {
		return d.HasSelection() && d.HasSlot() && d.ContactComplete()
	}},
	// Confirmation is gated on the payment side-channel only: the provider
	// callback must have been matched to this draft.
	{StepConfirmation, func(d *domain.Draft) bool {
		return d != nil && d.PaymentConfirmed && d.PaymentID != ""
	}},
}

// Known reports whether s names a step of the flow.
func Known(s Step) bool {
	for _, r := range rules {
		if r.step == s {
			return true
		}
	}
	return false
}

// Allowed reports whether the draft satisfies the entry predicate of s.
// Unknown steps are never allowed.
func Allowed(s Step, d *domain.Draft) bool {
	for _, r := range rules {
		if r.step == s {
			return r.allowed(d)
		}
	}
	return false
}

// Resolve gates entry into target. If the target's predicate holds the target
// is returned unchanged, so re-entering a valid step is a no-op and earlier
// cleared steps stay revisitable. Otherwise the visitor is sent to the
// furthest step whose predicate still holds, never unconditionally home.
// Requesting confirmation without a matched payment resolves to home; a miss
// elsewhere can land on confirmation only once a payment has been matched,
// in which case the receipt is the right place to be.
func Resolve(target Step, d *domain.Draft) Step {
	if !Known(target) {
		return StepHome
	}

	if Allowed(target, d) {
		return target
	}

	if target == StepConfirmation {
		return StepHome
	}

	for i := len(rules) - 1; i >= 0; i-- {
		if rules[i].allowed(d) {
			return rules[i].step
		}
	}

	return StepHome
}
