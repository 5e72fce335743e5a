package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter mounts the API the touchscreen front-end talks to.
func NewRouter(h *KioskHandler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/refresh", h.RefreshCart)
		})
		r.Post("/scan", h.Scan)
		r.Post("/remove", h.Remove)
		r.Get("/confirmation", h.GetConfirmation)
		r.Post("/confirmation", h.ResolveConfirmation)
		r.Post("/checkout", h.StartCheckout)
		r.Route("/payment", func(r chi.Router) {
			r.Get("/qr", h.PaymentQR)
			r.Post("/done", h.PaymentDone)
		})
		r.Post("/security", h.SecurityCheck)
		r.Get("/status", h.GetStatus)
		r.Get("/alerts", h.ListAlerts)
		r.Post("/alerts/ack", h.AckAlert)
		r.Get("/weight", h.GetWeight)
	})

	return otelhttp.NewHandler(r, "kiosk-api")
}
