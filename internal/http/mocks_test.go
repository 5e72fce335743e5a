package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/backend"
	"github.com/fjod/go_cart/smart-trolley/internal/mirror"
	"github.com/fjod/go_cart/smart-trolley/internal/service"
	"github.com/go-chi/chi/v5"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// fakeTrolley is a chi-routed stand-in for the trolley backend.
type fakeTrolley struct {
	mu        sync.Mutex
	prices    map[string]float64
	names     map[string]string
	qty       map[string]int
	order     []string
	paid      bool
	requestID string
}

func newFakeTrolley() *fakeTrolley {
	return &fakeTrolley{
		prices: map[string]float64{"123": 2, "456": 12.5},
		names:  map[string]string{"123": "Milk", "456": "Bread"},
		qty:    map[string]int{},
	}
}

func (f *fakeTrolley) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/cart", f.cart)
	r.Post("/api/scan", f.scan)
	r.Post("/api/remove-one", f.removeOne)
	r.Post("/api/start-payment", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "upi_link": "upi://pay"})
	})
	r.Post("/api/payment-done", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.paid = true
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"payment_confirmed": true})
	})
	r.Get("/api/payment-qr", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})
	r.Post("/api/security-check", f.securityCheck)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeTrolley) cart(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []map[string]any{}
	total := 0.0
	for _, b := range f.order {
		q := f.qty[b]
		if q == 0 {
			continue
		}
		line := f.prices[b] * float64(q)
		total += line
		items = append(items, map[string]any{
			"barcode": b, "name": f.names[b], "price": f.prices[b], "qty": q, "line_total": line,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (f *fakeTrolley) scan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Barcode string `json:"barcode"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestID = r.Header.Get("X-Request-ID")
	name, ok := f.names[req.Barcode]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "UNKNOWN_BARCODE"})
		return
	}
	if f.qty[req.Barcode] == 0 {
		f.order = append(f.order, req.Barcode)
	}
	f.qty[req.Barcode]++
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": name})
}

func (f *fakeTrolley) removeOne(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Barcode string `json:"barcode"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.qty[req.Barcode] == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "NOT_IN_CART", "message": "Item not in cart"})
		return
	}
	f.qty[req.Barcode]--
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Removed " + f.names[req.Barcode]})
}

func (f *fakeTrolley) securityCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passkey string `json:"passkey"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Passkey != "1234" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "WRONG_PASSKEY"})
		return
	}
	f.mu.Lock()
	f.qty = map[string]int{}
	f.order = nil
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type kioskFixture struct {
	trolley *fakeTrolley
	handler *KioskHandler
	router  http.Handler
	mirror  *mirror.Mirror
}

func newKioskFixture(t *testing.T) *kioskFixture {
	t.Helper()
	trolley := newFakeTrolley()
	srv := httptest.NewServer(trolley.router())
	t.Cleanup(srv.Close)

	client := backend.NewClient(srv.URL, backend.DefaultTimeouts(), backend.WithHTTPClient(srv.Client()))
	m := mirror.New(client)
	status := NewStatusBoard()
	deps := service.Deps{Mirror: m, Gate: service.NewGate(), Reporter: status, TrolleyID: "t-1"}

	h := NewKioskHandler(Controllers{
		Cart:     m,
		Scanner:  service.NewScanController(deps, client),
		Remover:  service.NewRemovalController(deps, client),
		Checkout: service.NewCheckoutTrigger(deps, client),
		Verifier: service.NewSecurityVerifier(deps, client),
		Gate:     deps.Gate,
		Status:   status,
	}, 5*time.Second)

	return &kioskFixture{
		trolley: trolley,
		handler: h,
		router:  NewRouter(h, 10*time.Second),
		mirror:  m,
	}
}
