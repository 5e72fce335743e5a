package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one barcode's aggregated entry as last reported by the backend.
type CartLine struct {
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartSnapshot represents the full cart state at fetch time.
// Lines keep the order the backend returned them in.
type CartSnapshot struct {
	Lines     []CartLine      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	FetchedAt time.Time       `json:"fetched_at"`
}

func EmptySnapshot() *CartSnapshot {
	return &CartSnapshot{Lines: []CartLine{}, Total: decimal.Zero}
}

// Validate checks the snapshot invariants: positive quantities, non-negative
// prices, unique barcodes and a total equal to the sum of line totals.
func (s *CartSnapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Lines))
	sum := decimal.Zero
	for _, line := range s.Lines {
		if line.Barcode == "" {
			return fmt.Errorf("%w: line without barcode", ErrInvalidSnapshot)
		}
		if _, dup := seen[line.Barcode]; dup {
			return fmt.Errorf("%w: duplicate barcode %q", ErrInvalidSnapshot, line.Barcode)
		}
		seen[line.Barcode] = struct{}{}

		if line.Quantity <= 0 {
			return fmt.Errorf("%w: barcode %q has quantity %d", ErrInvalidSnapshot, line.Barcode, line.Quantity)
		}
		if line.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: barcode %q has negative price", ErrInvalidSnapshot, line.Barcode)
		}
		sum = sum.Add(line.LineTotal)
	}

	if !sum.Equal(s.Total) {
		return fmt.Errorf("%w: total %s does not match sum of lines %s", ErrInvalidSnapshot, s.Total, sum)
	}
	return nil
}

// Lookup finds the line for barcode. Exact match only.
func (s *CartSnapshot) Lookup(barcode string) (CartLine, bool) {
	for _, line := range s.Lines {
		if line.Barcode == barcode {
			return line, true
		}
	}
	return CartLine{}, false
}

func (s *CartSnapshot) Len() int {
	return len(s.Lines)
}

// Units is the number of physical items in the cart.
func (s *CartSnapshot) Units() int {
	n := 0
	for _, line := range s.Lines {
		n += line.Quantity
	}
	return n
}
