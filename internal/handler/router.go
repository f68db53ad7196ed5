package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/marketdash/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware панели продавца.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.Logger(h.logger))

	// promhttp сжимает ответ самостоятельно.
	r.Handle("/metrics", promhttp.Handler())

	r.With(custommiddleware.GzipMiddleware).Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/auth/logout", h.Logout)

			r.Get("/platforms", h.Platforms)
			r.Get("/credentials", h.Credentials)
			r.Post("/credentials", h.CreateCredential)
			r.Put("/credentials/{id}", h.UpdateCredential)
			r.Delete("/credentials/{id}", h.DeleteCredential)

			r.Get("/orders", h.Orders)
			r.Post("/orders/refresh", h.RefreshOrders)
			r.Get("/orders/summary.xlsx", h.ExportSummary)

			r.Put("/visibility/credentials/{id}", h.SetCredentialVisibility)
			r.Put("/visibility/trendyol/{country}", h.SetTrendyolVisibility)

			r.Post("/stock", h.Stock)

			r.Route("/calculator", func(r chi.Router) {
				r.Get("/", h.Calculator)
				r.Put("/", h.SaveCalculator)
				r.Post("/flush", h.FlushCalculator)
				r.Get("/edits", h.PendingEdits)
				r.Patch("/products/{key}", h.StageProduct)
				r.Post("/products/{key}/commit", h.CommitProduct)
				r.Delete("/products/{key}/edit", h.CancelProductEdit)
				r.Get("/prices", h.Prices)
				r.Post("/fetch-prices", h.FetchPrices)
				r.Post("/productivity", h.Productivity)
			})

			r.Get("/auto-refresh", h.AutoRefresh)
			r.Post("/auto-refresh", h.SetAutoRefresh)

			r.Get("/emag/courier-accounts", h.CourierAccounts)
			r.Get("/emag/addresses", h.Addresses)
			r.Post("/emag/order-details", h.OrderDetails)
			r.Post("/emag/awb", h.GenerateAWB)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
