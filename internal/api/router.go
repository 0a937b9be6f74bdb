package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the storefront view surface. Each route maps onto one
// view coordinator; no business rule lives in a handler.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/session/login", h.Login)
	r.Post("/session/logout", h.Logout)
	r.Get("/session", h.Session)

	r.Get("/cart", h.Cart)
	r.Put("/cart/lines/{lineID}", h.SetQuantity)
	r.Delete("/cart/lines/{lineID}", h.RemoveLine)
	r.Get("/cart/quotation", h.Quotation)

	r.Get("/badge", h.Badge)
	r.Post("/badge/poke", h.PokeBadge)

	r.Post("/checkout", h.EnterCheckout)
	r.Put("/checkout", h.UpdateCheckout)
	r.Post("/checkout/proceed", h.ProceedCheckout)

	r.Get("/payment", h.PaymentView)
	r.Post("/payment/create", h.CreatePayment)

	r.Get("/checkout/success", h.Success)
	r.Get("/receipt", h.Receipt)

	return r
}
