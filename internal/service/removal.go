package service

import (
	"context"
	"strings"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

const (
	msgRemoveCancelled = "Remove cancelled."
	msgRemoveWaiting   = "Please remove the item from trolley and wait…"
	msgRemoveOK        = "Item removed."
	msgRemoveFailed    = "Cannot remove item."
)

// RemovalController takes one unit of an item off the cart. The backend
// only confirms once the scale shows the matching weight drop, so every
// removal is confirmed first.
type RemovalController struct {
	Deps
	backend RemovalBackend
}

func NewRemovalController(deps Deps, backend RemovalBackend) *RemovalController {
	return &RemovalController{Deps: deps.withDefaults(), backend: backend}
}

// Remove always returns a Confirmation. name is the label shown on the
// remove button; when empty the mirror's name for barcode is used.
func (c *RemovalController) Remove(ctx context.Context, barcode, name string) (*Confirmation, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, ErrEmptyBarcode
	}
	if name == "" {
		name = barcode
		if line, ok := c.Mirror.Contains(barcode); ok {
			name = line.Name
		}
	}

	conf := &Confirmation{
		PendingConfirmation: domain.PendingConfirmation{
			Action:  domain.ActionRemoveOne,
			Barcode: barcode,
			Name:    name,
		},
		gate: c.Gate,
		accept: func(ctx context.Context) Outcome {
			return c.submit(ctx, barcode)
		},
		decline: func(ctx context.Context) Outcome {
			out := Outcome{Status: domain.Warning(msgRemoveCancelled)}
			c.report(out.Status)
			c.record(ctx, domain.ActivityRemove, barcode, out)
			return out
		},
	}
	if err := c.Gate.hold(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *RemovalController) submit(ctx context.Context, barcode string) Outcome {
	ctx, span := tracer.Start(ctx, "RemovalController.submit")
	defer span.End()
	span.SetAttributes(attribute.String("trolley.barcode", barcode))

	c.report(domain.Progress(msgRemoveWaiting))

	result, err := c.backend.RemoveOne(ctx, barcode)
	var out Outcome
	switch {
	case err != nil:
		span.RecordError(err)
		out = Outcome{Status: domain.Failure(msgRemoveFailed)}
	case !result.OK:
		out = Outcome{Status: domain.Failure(serverMessage(result, msgRemoveFailed)), Code: serverCode(result)}
	default:
		out = Outcome{Status: domain.OK(serverMessage(result, msgRemoveOK))}
		c.refresh(ctx, &out)
	}

	c.report(out.Status)
	c.record(ctx, domain.ActivityRemove, barcode, out)
	return out
}
