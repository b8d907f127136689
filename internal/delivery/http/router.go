package http //nolint:revive // directory-based package name, imported with alias

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 30 * time.Second

func NewRouter(h *Handler, metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/api/qris", h.HandleQR)
	r.Get("/api/qris/image", h.HandleQRImage)
	r.Post("/api/checkout", h.HandleCheckout)
	r.Get("/api/transactions/{id}", h.HandleGetTransaction)
	r.Get("/api/admin/transactions", h.HandleListTransactions)
	r.Patch("/api/admin/transactions/{id}/status", h.HandleUpdateStatus)
	r.Get("/api/admin/stats", h.HandleStats)

	r.Method(http.MethodGet, "/metrics", metrics)

	return r
}
