package service

import (
	"context"
	"log"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/backend"
	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/fjod/go_cart/smart-trolley/internal/service")

type CartMirror interface {
	Contains(barcode string) (domain.CartLine, bool)
	Refresh(ctx context.Context) (*domain.CartSnapshot, error)
}

type ScanBackend interface {
	Scan(ctx context.Context, barcode string) (*backend.ActionResult, error)
}

type RemovalBackend interface {
	RemoveOne(ctx context.Context, barcode string) (*backend.ActionResult, error)
}

type PaymentBackend interface {
	StartPayment(ctx context.Context) (*backend.ActionResult, error)
	PaymentDone(ctx context.Context) (*backend.ActionResult, error)
	PaymentQR(ctx context.Context) ([]byte, error)
}

type SecurityBackend interface {
	SecurityCheck(ctx context.Context, passkey string, confirm bool) (*backend.ActionResult, error)
}

// StatusReporter receives every status change, including the in-progress
// ones that never reach an Outcome.
type StatusReporter interface {
	Report(status domain.Status)
}

type Journal interface {
	Record(ctx context.Context, activity domain.Activity) error
}

// Outcome is the terminal result of one controller invocation.
type Outcome struct {
	Status       domain.Status `json:"status"`
	Code         string        `json:"code,omitempty"`
	ItemName     string        `json:"item_name,omitempty"`
	ClearInput   bool          `json:"clear_input"`
	PaymentReady bool          `json:"payment_ready,omitempty"`
	Refreshed    bool          `json:"refreshed"`
	RefreshErr   error         `json:"-"`
}

// Deps are shared by every controller of one kiosk session.
type Deps struct {
	Mirror    CartMirror
	Gate      *Gate
	Reporter  StatusReporter
	Journal   Journal
	TrolleyID string
}

func (d Deps) withDefaults() Deps {
	if d.Gate == nil {
		d.Gate = NewGate()
	}
	return d
}

func (d Deps) report(status domain.Status) {
	if d.Reporter != nil {
		d.Reporter.Report(status)
	}
}

func (d Deps) record(ctx context.Context, kind domain.ActivityKind, barcode string, out Outcome) {
	if d.Journal == nil {
		return
	}
	err := d.Journal.Record(ctx, domain.Activity{
		TrolleyID: d.TrolleyID,
		Kind:      kind,
		Barcode:   barcode,
		Outcome:   out.Status.Kind,
		Message:   out.Status.Message,
		Code:      out.Code,
		At:        time.Now(),
	})
	if err != nil {
		log.Printf("journal record error: %v \n", err)
	}
}

// refresh runs the single follow-up refresh after a successful request.
// A refresh failure does not undo the success, it is attached to the outcome.
func (d Deps) refresh(ctx context.Context, out *Outcome) {
	span := trace.SpanFromContext(ctx)
	snapshot, err := d.Mirror.Refresh(ctx)
	if err != nil {
		log.Printf("cart refresh after %q failed: %v", out.Status.Message, err)
		span.RecordError(err)
		out.RefreshErr = err
		return
	}
	span.SetAttributes(attribute.Int("cart.lines", snapshot.Len()))
	out.Refreshed = true
}

func serverMessage(result *backend.ActionResult, fallback string) string {
	if result != nil && result.Message != "" {
		return result.Message
	}
	return fallback
}

func serverCode(result *backend.ActionResult) string {
	if result == nil {
		return ""
	}
	return result.Code
}
