package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mrmateussiilva/petstory-mvp/internal/logger"
	"github.com/mrmateussiilva/petstory-mvp/internal/middleware"
	"github.com/mrmateussiilva/petstory-mvp/internal/order"
	"github.com/mrmateussiilva/petstory-mvp/internal/payment"
)

func NewRouter(orderH *order.Handler, paymentH *payment.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.WithLogging)
	r.Use(chiMiddleware.Recoverer)

	r.Use(middleware.GzipHandler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/pet", orderH.CreateOrder)
	r.Get("/order/{orderID}", orderH.GetOrder)
	r.Post("/webhook/asaas", paymentH.Webhook)

	return r
}
