package service

import (
	"context"
	"strings"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

const (
	msgScanProcessing = "Processing scan…"
	msgScanCancelled  = "Cancelled adding duplicate item."
	msgScanFailed     = "Error while adding item."
)

// Step is what one Scan call produced: nothing (empty input), a finished
// Outcome, or a Confirmation the shopper must answer.
type Step struct {
	Outcome      *Outcome
	Confirmation *Confirmation
}

func (s Step) NeedsConfirmation() bool {
	return s.Confirmation != nil
}

func (s Step) IsNoop() bool {
	return s.Outcome == nil && s.Confirmation == nil
}

type ScanController struct {
	Deps
	backend ScanBackend
}

func NewScanController(deps Deps, backend ScanBackend) *ScanController {
	return &ScanController{Deps: deps.withDefaults(), backend: backend}
}

// Scan adds the scanned barcode to the cart. A barcode already present in
// the mirror is held behind a Confirmation naming the existing item.
func (c *ScanController) Scan(ctx context.Context, raw string) (Step, error) {
	barcode := strings.TrimSpace(raw)
	if barcode == "" {
		return Step{}, nil
	}

	existing, duplicate := c.Mirror.Contains(barcode)
	if !duplicate {
		if err := c.Gate.check(); err != nil {
			return Step{}, err
		}
		out := c.submit(ctx, barcode)
		return Step{Outcome: &out}, nil
	}

	conf := &Confirmation{
		PendingConfirmation: domain.PendingConfirmation{
			Action:  domain.ActionAdd,
			Barcode: barcode,
			Name:    existing.Name,
		},
		gate: c.Gate,
		accept: func(ctx context.Context) Outcome {
			return c.submit(ctx, barcode)
		},
		decline: func(ctx context.Context) Outcome {
			out := Outcome{Status: domain.Warning(msgScanCancelled), ClearInput: true}
			c.report(out.Status)
			c.record(ctx, domain.ActivityScan, barcode, out)
			return out
		},
	}
	if err := c.Gate.hold(conf); err != nil {
		return Step{}, err
	}
	return Step{Confirmation: conf}, nil
}

func (c *ScanController) submit(ctx context.Context, barcode string) Outcome {
	ctx, span := tracer.Start(ctx, "ScanController.submit")
	defer span.End()
	span.SetAttributes(attribute.String("trolley.barcode", barcode))

	c.report(domain.Progress(msgScanProcessing))

	result, err := c.backend.Scan(ctx, barcode)
	var out Outcome
	switch {
	case err != nil:
		span.RecordError(err)
		out = Outcome{Status: domain.Failure(msgScanFailed)}
	case !result.OK:
		out = Outcome{Status: domain.Failure(serverMessage(result, msgScanFailed)), Code: serverCode(result)}
	default:
		name := result.Name
		if name == "" {
			name = barcode
		}
		out = Outcome{Status: domain.OK("Added: " + name), ItemName: name, ClearInput: true}
		c.refresh(ctx, &out)
	}

	c.report(out.Status)
	c.record(ctx, domain.ActivityScan, barcode, out)
	return out
}
