package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle             CheckoutStatus = "IDLE"
	CheckoutStatusValidatingCart   CheckoutStatus = "VALIDATING_CART"
	CheckoutStatusValidatingStock  CheckoutStatus = "VALIDATING_STOCK"
	CheckoutStatusSubmitting       CheckoutStatus = "SUBMITTING"
	CheckoutStatusCleared          CheckoutStatus = "CLEARED"
	CheckoutStatusRejected         CheckoutStatus = "REJECTED"
	CheckoutStatusSubmissionFailed CheckoutStatus = "SUBMISSION_FAILED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:             {CheckoutStatusValidatingCart},
	CheckoutStatusValidatingCart:   {CheckoutStatusValidatingStock, CheckoutStatusRejected},
	CheckoutStatusValidatingStock:  {CheckoutStatusSubmitting, CheckoutStatusRejected},
	CheckoutStatusSubmitting:       {CheckoutStatusCleared, CheckoutStatusSubmissionFailed},
	CheckoutStatusCleared:          {CheckoutStatusIdle},
	CheckoutStatusRejected:         {CheckoutStatusIdle},
	CheckoutStatusSubmissionFailed: {CheckoutStatusIdle},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a checkout run ends in this state.
func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCleared || s == CheckoutStatusRejected || s == CheckoutStatusSubmissionFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
