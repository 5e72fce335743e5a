package domain

import "time"

type ActivityKind string

const (
	ActivityScan     ActivityKind = "SCAN"
	ActivityRemove   ActivityKind = "REMOVE_ONE"
	ActivityCheckout ActivityKind = "START_PAYMENT"
	ActivityPaid     ActivityKind = "PAYMENT_DONE"
	ActivitySecurity ActivityKind = "SECURITY_CHECK"
	ActivityAlert    ActivityKind = "ALERT"
)

// Activity is one finished shopper interaction or alert, kept for audit.
type Activity struct {
	ID        int64        `json:"id,omitempty"`
	TrolleyID string       `json:"trolley_id"`
	Kind      ActivityKind `json:"kind"`
	Barcode   string       `json:"barcode,omitempty"`
	Outcome   StatusKind   `json:"outcome"`
	Message   string       `json:"message"`
	Code      string       `json:"code,omitempty"`
	At        time.Time    `json:"at"`
}
