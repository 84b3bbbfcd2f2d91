package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mrmateussiilva/petstory-mvp/internal/logger"
	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"
	"go.uber.org/zap"
)

type OrderRepository interface {
	FindOrderByCheckoutID(ctx context.Context, checkoutID string) (*order.Order, error)
	SetPaymentConfirmed(ctx context.Context, orderID string) error
}

// Scheduler hands a confirmed order to the fulfillment pipeline.
type Scheduler interface {
	Enqueue(orderID string)
}

type Handler struct {
	repo  OrderRepository
	sched Scheduler
	token string
}

func NewHandler(repo OrderRepository, sched Scheduler, webhookToken string) *Handler {
	return &Handler{repo: repo, sched: sched, token: webhookToken}
}

// Webhook receives Asaas events. Only an authentication failure is ever
// surfaced as an error; unknown or unrelated events are acknowledged so
// the gateway does not hammer us with redeliveries.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if !TokenValid(r.Header.Get(TokenHeader), h.token) {
		http.Error(w, "invalid webhook token", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		ack(w)
		return
	}
	conf, err := ParseEvent(body)
	if err != nil {
		if !errors.Is(err, ErrIgnoredEvent) {
			logger.Log.Info("webhook: undecodable payload", zap.Error(err))
		}
		ack(w)
		return
	}

	o, err := h.repo.FindOrderByCheckoutID(r.Context(), conf.CheckoutID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.Log.Info("webhook: no order for checkout", zap.String("checkout_id", conf.CheckoutID))
		ack(w)
		return
	}
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.repo.SetPaymentConfirmed(r.Context(), o.ID); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	logger.Log.Info("payment confirmed",
		zap.String("order_id", o.ID),
		zap.String("checkout_id", conf.CheckoutID),
	)
	h.sched.Enqueue(o.ID)
	ack(w)
}

func ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}
