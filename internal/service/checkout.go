package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
)

const (
	msgPaymentStarted   = "Payment started. Open the Payment tab or click the link."
	msgPaymentFailed    = "Cannot start payment."
	msgPaymentConfirmed = "Payment confirmed. Please wait for staff verification."
	msgPaymentNotDone   = "Payment not confirmed yet."
)

// CheckoutTrigger moves the session from shopping to payment. It keeps no
// record of whether a payment was already started; the backend decides.
type CheckoutTrigger struct {
	Deps
	backend PaymentBackend
}

func NewCheckoutTrigger(deps Deps, backend PaymentBackend) *CheckoutTrigger {
	return &CheckoutTrigger{Deps: deps.withDefaults(), backend: backend}
}

func (c *CheckoutTrigger) Start(ctx context.Context) Outcome {
	ctx, span := tracer.Start(ctx, "CheckoutTrigger.Start")
	defer span.End()

	result, err := c.backend.StartPayment(ctx)
	var out Outcome
	switch {
	case err != nil:
		span.RecordError(err)
		out = Outcome{Status: domain.Failure(msgPaymentFailed)}
	case !result.OK:
		out = Outcome{Status: domain.Failure(serverMessage(result, msgPaymentFailed)), Code: serverCode(result)}
	default:
		out = Outcome{Status: domain.OK(msgPaymentStarted), PaymentReady: true}
	}

	c.report(out.Status)
	c.record(ctx, domain.ActivityCheckout, "", out)
	return out
}

// PaymentQR fetches the QR image the shopper scans to pay.
func (c *CheckoutTrigger) PaymentQR(ctx context.Context) ([]byte, error) {
	img, err := c.backend.PaymentQR(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment qr: %w", err)
	}
	return img, nil
}

// ConfirmPaid tells the backend the shopper says they have paid.
func (c *CheckoutTrigger) ConfirmPaid(ctx context.Context) Outcome {
	result, err := c.backend.PaymentDone(ctx)
	var out Outcome
	switch {
	case err != nil:
		out = Outcome{Status: domain.Failure(msgPaymentNotDone)}
	case !result.Succeeded():
		out = Outcome{Status: domain.Failure(serverMessage(result, msgPaymentNotDone)), Code: serverCode(result)}
	default:
		out = Outcome{Status: domain.OK(serverMessage(result, msgPaymentConfirmed))}
	}

	c.report(out.Status)
	c.record(ctx, domain.ActivityPaid, "", out)
	return out
}
