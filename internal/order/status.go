// Package order holds the client-side model of the order lifecycle: the
// status set, order summaries and details, and the delivery-address
// validation rules enforced before a draft order may be confirmed.
//
// The remote service owns the authoritative state machine; everything here
// is a read-mostly mirror plus the policy checks the UI runs locally.
package order

import "fmt"

// Status is one value from the closed lifecycle set.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusInKitchen      Status = "in_kitchen"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCanceled       Status = "canceled"
)

// lifecycle lists every status in business order. Canceled sits last because
// it is reachable from any non-terminal status rather than a step in the
// happy path.
var lifecycle = []Status{
	StatusDraft,
	StatusPendingPayment,
	StatusPaid,
	StatusInKitchen,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCanceled,
}

// Statuses returns the full lifecycle in display order.
func Statuses() []Status {
	out := make([]Status, len(lifecycle))
	copy(out, lifecycle)
	return out
}

// Valid reports whether s is a member of the lifecycle set.
func (s Status) Valid() bool {
	for _, known := range lifecycle {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are offered from s,
// regardless of what a board configuration says.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// ParseStatus converts a raw string into a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("order: unknown status %q", raw)
	}
	return s, nil
}

// DisplayName returns the badge label shown for a status when the board
// configuration does not supply its own title.
func (s Status) DisplayName() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPendingPayment:
		return "Pending payment"
	case StatusPaid:
		return "Paid"
	case StatusInKitchen:
		return "In kitchen"
	case StatusOutForDelivery:
		return "Out for delivery"
	case StatusDelivered:
		return "Delivered"
	case StatusCanceled:
		return "Canceled"
	}
	return string(s)
}
