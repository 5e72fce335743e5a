package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Alert is a one-shot security notice raised by the backend weight monitor.
type Alert struct {
	Message   string    `json:"message"`
	TrolleyID string    `json:"trolley_id"`
	RaisedAt  time.Time `json:"raised_at"`
}

// Weight is a live scale reading in grams.
type Weight struct {
	Grams   float64   `json:"grams"`
	Display string    `json:"display"`
	ReadAt  time.Time `json:"read_at"`
}

const CurrencySymbol = "₹"

func FormatWeight(grams float64) string {
	return fmt.Sprintf("%.2f g", grams)
}

func FormatMoney(amount decimal.Decimal) string {
	return CurrencySymbol + amount.String()
}
