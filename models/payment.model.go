package models

import "strings"

// PaymentStatus is the payment dimension of an order.
type PaymentStatus string

const (
	PaymentCreated  PaymentStatus = "CREATED"
	PaymentAwaiting PaymentStatus = "AWAITING_PAYMENT"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "PAYMENT_FAILED"
)

// paymentTransitions lists the statuses reachable from each status.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentCreated:  {PaymentAwaiting},
	PaymentAwaiting: {PaymentPaid, PaymentFailed},
	PaymentPaid:     {},
	PaymentFailed:   {},
}

// IsTerminal reports whether no further payment transitions are allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentPaid || s == PaymentFailed
}

// IsValid reports whether s is one of the known statuses.
func (s PaymentStatus) IsValid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// gatewayStatuses maps the status strings reported by payment providers
// (GoPay and Razorpay vocabularies) onto order payment statuses.
var gatewayStatuses = map[string]PaymentStatus{
	"paid":                  PaymentPaid,
	"captured":              PaymentPaid,
	"canceled":              PaymentFailed,
	"cancelled":             PaymentFailed,
	"timeouted":             PaymentFailed,
	"failed":                PaymentFailed,
	"declined":              PaymentFailed,
	"created":               PaymentAwaiting,
	"pending":               PaymentAwaiting,
	"payment_method_chosen": PaymentAwaiting,
	"authorized":            PaymentAwaiting,
}

// PaymentStatusFromGateway translates a provider status string.
// The second result is false for statuses it does not know.
func PaymentStatusFromGateway(raw string) (PaymentStatus, bool) {
	status, ok := gatewayStatuses[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}
