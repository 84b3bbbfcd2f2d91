package order

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
)

type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentProcessed FulfillmentStatus = "processed"
)

type Order struct {
	ID                string            `db:"order_id" json:"order_id"`
	PetName           string            `db:"pet_name" json:"pet_name"`
	CustomerEmail     string            `db:"customer_email" json:"customer_email"`
	FileNames         []string          `db:"file_names" json:"file_names"`
	PaymentStatus     PaymentStatus     `db:"payment_status" json:"payment_status"`
	FulfillmentStatus FulfillmentStatus `db:"fulfillment_status" json:"fulfillment_status"`
	CheckoutID        *string           `db:"checkout_id" json:"checkout_id,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// ReadyForFulfillment reports whether the order passed the payment gate
// but has not been produced yet.
func (o *Order) ReadyForFulfillment() bool {
	return o.PaymentStatus == PaymentConfirmed && o.FulfillmentStatus == FulfillmentPending
}
