package order

import (
	"context"

	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, petName, customerEmail string, fileNames []string) (string, error)
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	SetCheckoutID(ctx context.Context, orderID, checkoutID string) error
	SetFileNames(ctx context.Context, orderID string, fileNames []string) error
}
