package backend

import (
	"fmt"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"github.com/shopspring/decimal"
)

// cartLineDTO mirrors an item of GET /api/cart. The backend names the
// fields price, qty and line_total.
type cartLineDTO struct {
	Barcode   string           `json:"barcode"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Qty       int              `json:"qty"`
	LineTotal *decimal.Decimal `json:"line_total"`
}

type cartDTO struct {
	Items []cartLineDTO    `json:"items"`
	Total *decimal.Decimal `json:"total"`
}

func (c cartDTO) toSnapshot(fetchedAt time.Time) (*domain.CartSnapshot, error) {
	if c.Total == nil {
		return nil, fmt.Errorf("%w: cart total missing", ErrMalformedResponse)
	}

	snapshot := &domain.CartSnapshot{
		Lines:     make([]domain.CartLine, 0, len(c.Items)),
		Total:     *c.Total,
		FetchedAt: fetchedAt,
	}
	for _, item := range c.Items {
		if item.LineTotal == nil {
			return nil, fmt.Errorf("%w: line_total missing for barcode %q", ErrMalformedResponse, item.Barcode)
		}
		snapshot.Lines = append(snapshot.Lines, domain.CartLine{
			Barcode:   item.Barcode,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Qty,
			LineTotal: *item.LineTotal,
		})
	}
	return snapshot, nil
}

type barcodeRequest struct {
	Barcode string `json:"barcode"`
}

type securityCheckRequest struct {
	Passkey string `json:"passkey"`
	Confirm bool   `json:"confirm"`
}

// ActionResult is the reply shape shared by the POST endpoints. Code holds
// the machine readable "error" field, e.g. UNKNOWN_BARCODE or WEIGHT_MISMATCH.
type ActionResult struct {
	OK               bool             `json:"ok"`
	Name             string           `json:"name,omitempty"`
	Barcode          string           `json:"barcode,omitempty"`
	Message          string           `json:"message,omitempty"`
	Code             string           `json:"error,omitempty"`
	Total            *decimal.Decimal `json:"total,omitempty"`
	UPILink          string           `json:"upi_link,omitempty"`
	PaymentConfirmed bool             `json:"payment_confirmed,omitempty"`
}

// Succeeded treats payment_confirmed as success for /api/payment-done,
// which does not send ok.
func (r *ActionResult) Succeeded() bool {
	return r.OK || r.PaymentConfirmed
}

type MonitorResult struct {
	Alert   string `json:"alert,omitempty"`
	OK      bool   `json:"ok,omitempty"`
	Skipped string `json:"skipped,omitempty"`
}

type weightDTO struct {
	Weight *float64 `json:"weight"`
}
