package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"github.com/fjod/go_cart/smart-trolley/internal/service"
	"github.com/shopspring/decimal"
)

type CartView interface {
	Snapshot() *domain.CartSnapshot
	Refresh(ctx context.Context) (*domain.CartSnapshot, error)
}

type Scanner interface {
	Scan(ctx context.Context, raw string) (service.Step, error)
}

type Remover interface {
	Remove(ctx context.Context, barcode, name string) (*service.Confirmation, error)
}

type Checkout interface {
	Start(ctx context.Context) service.Outcome
	PaymentQR(ctx context.Context) ([]byte, error)
	ConfirmPaid(ctx context.Context) service.Outcome
}

type Verifier interface {
	Verify(ctx context.Context, passkey string, confirm bool) service.Outcome
}

type PendingSource interface {
	Pending() *service.Confirmation
}

// Controllers is everything the kiosk API drives.
type Controllers struct {
	Cart     CartView
	Scanner  Scanner
	Remover  Remover
	Checkout Checkout
	Verifier Verifier
	Gate     PendingSource
	Status   *StatusBoard
	Alerts   *AlertBoard
	Weight   *WeightBoard
}

type KioskHandler struct {
	Controllers
	timeout time.Duration
}

func NewKioskHandler(c Controllers, timeout time.Duration) *KioskHandler {
	if c.Status == nil {
		c.Status = NewStatusBoard()
	}
	if c.Alerts == nil {
		c.Alerts = NewAlertBoard()
	}
	if c.Weight == nil {
		c.Weight = NewWeightBoard()
	}
	return &KioskHandler{Controllers: c, timeout: timeout}
}

type BarcodeRequestDTO struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name,omitempty"`
}

type ConfirmationRequestDTO struct {
	Accept bool `json:"accept"`
}

type SecurityRequestDTO struct {
	Passkey string `json:"passkey"`
	Confirm bool   `json:"confirm"`
}

type CartResponseDTO struct {
	Items        []domain.CartLine `json:"items"`
	Total        decimal.Decimal   `json:"total"`
	TotalDisplay string            `json:"total_display"`
	Units        int               `json:"units"`
	FetchedAt    *time.Time        `json:"fetched_at,omitempty"`
}

type ConfirmationDTO struct {
	Action   domain.Action `json:"action"`
	Barcode  string        `json:"barcode"`
	Name     string        `json:"name"`
	Question string        `json:"question"`
}

type ScanResponseDTO struct {
	Outcome      *service.Outcome `json:"outcome,omitempty"`
	Confirmation *ConfirmationDTO `json:"confirmation,omitempty"`
}

type StatusResponseDTO struct {
	Status        domain.Status `json:"status"`
	StatusLabel   string        `json:"status_label"`
	Pending       bool          `json:"pending_confirmation"`
	PendingAlerts int           `json:"pending_alerts"`
}

func toCartResponse(s *domain.CartSnapshot) CartResponseDTO {
	resp := CartResponseDTO{
		Items:        s.Lines,
		Total:        s.Total,
		TotalDisplay: domain.FormatMoney(s.Total),
		Units:        s.Units(),
	}
	if resp.Items == nil {
		resp.Items = []domain.CartLine{}
	}
	if !s.FetchedAt.IsZero() {
		at := s.FetchedAt
		resp.FetchedAt = &at
	}
	return resp
}

func toConfirmationDTO(c *service.Confirmation) *ConfirmationDTO {
	return &ConfirmationDTO{
		Action:   c.Action,
		Barcode:  c.Barcode,
		Name:     c.Name,
		Question: c.Question(),
	}
}

func (h *KioskHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toCartResponse(h.Cart.Snapshot()))
}

func (h *KioskHandler) RefreshCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snapshot, err := h.Cart.Refresh(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(snapshot))
}

func (h *KioskHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BarcodeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	step, err := h.Scanner.Scan(ctx, req.Barcode)
	if err != nil {
		handleError(w, err)
		return
	}
	if step.IsNoop() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := ScanResponseDTO{Outcome: step.Outcome}
	if step.NeedsConfirmation() {
		resp.Confirmation = toConfirmationDTO(step.Confirmation)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *KioskHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BarcodeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	conf, err := h.Remover.Remove(ctx, req.Barcode, req.Name)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ScanResponseDTO{Confirmation: toConfirmationDTO(conf)})
}

func (h *KioskHandler) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	conf := h.Gate.Pending()
	if conf == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, toConfirmationDTO(conf))
}

// ResolveConfirmation answers the pending confirmation. Accepting one runs
// the held request, so it can take as long as a scan.
func (h *KioskHandler) ResolveConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ConfirmationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	conf := h.Gate.Pending()
	if conf == nil {
		respondError(w, http.StatusNotFound, "no_pending_confirmation", "nothing to confirm")
		return
	}

	out, err := conf.Resolve(ctx, req.Accept)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *KioskHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.Checkout.Start(ctx))
}

func (h *KioskHandler) PaymentQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	img, err := h.Checkout.PaymentQR(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (h *KioskHandler) PaymentDone(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.Checkout.ConfirmPaid(ctx))
}

func (h *KioskHandler) SecurityCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SecurityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Passkey) == "" {
		respondError(w, http.StatusBadRequest, "passkey_required", "passkey is required")
		return
	}

	respondJSON(w, http.StatusOK, h.Verifier.Verify(ctx, req.Passkey, req.Confirm))
}

func (h *KioskHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := h.Status.Current()
	respondJSON(w, http.StatusOK, StatusResponseDTO{
		Status:        status,
		StatusLabel:   status.Kind.String(),
		Pending:       h.Gate.Pending() != nil,
		PendingAlerts: h.Alerts.Len(),
	})
}

func (h *KioskHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Alerts.List())
}

func (h *KioskHandler) AckAlert(w http.ResponseWriter, r *http.Request) {
	alert, ok := h.Alerts.Ack()
	if !ok {
		respondError(w, http.StatusNotFound, "no_pending_alert", "no alert to acknowledge")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"acknowledged": alert,
		"remaining":    h.Alerts.Len(),
	})
}

func (h *KioskHandler) GetWeight(w http.ResponseWriter, r *http.Request) {
	weight, ok := h.Weight.Last()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, weight)
}
