package storage

import (
	"context"

	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"
)

// OrderRepository is the durable record of orders, the single source of
// truth for their state. A missing order surfaces as sql.ErrNoRows from
// every lookup and mutation.
type OrderRepository interface {
	CreateOrder(ctx context.Context, petName, customerEmail string, fileNames []string) (string, error)
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	FindOrderByCheckoutID(ctx context.Context, checkoutID string) (*order.Order, error)
	SetCheckoutID(ctx context.Context, orderID, checkoutID string) error
	SetPaymentConfirmed(ctx context.Context, orderID string) error
	SetFulfillmentStatus(ctx context.Context, orderID string, status order.FulfillmentStatus) error
	SetFileNames(ctx context.Context, orderID string, fileNames []string) error
	// ListReadyForFulfillment returns orders with payment confirmed and
	// fulfillment pending, oldest created_at first.
	ListReadyForFulfillment(ctx context.Context) ([]order.Order, error)
}

// Storage reúne o repositório de pedidos e o controle de conexão.
type Storage interface {
	OrderRepository

	Ping(ctx context.Context) error
	Close() error
}
