package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &PostgresStorage{db: db}

	if err := s.db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            order_id TEXT PRIMARY KEY,
            pet_name TEXT NOT NULL,
            customer_email TEXT NOT NULL,
            file_names TEXT NOT NULL DEFAULT '[]',
            payment_status TEXT NOT NULL,
            fulfillment_status TEXT NOT NULL,
            checkout_id TEXT UNIQUE,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_ready
            ON orders (created_at)
            WHERE payment_status = 'confirmed' AND fulfillment_status = 'pending'`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) CreateOrder(ctx context.Context, petName, customerEmail string, fileNames []string) (string, error) {
	names, err := json.Marshal(fileNames)
	if err != nil {
		return "", fmt.Errorf("encode file names: %w", err)
	}
	orderID := uuid.NewString()
	now := time.Now().UTC()
	const q = `
        INSERT INTO orders (order_id, pet_name, customer_email, file_names,
                            payment_status, fulfillment_status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`
	if _, err := s.db.ExecContext(ctx, q,
		orderID, petName, customerEmail, string(names),
		order.PaymentPending, order.FulfillmentPending, now,
	); err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	return orderID, nil
}

const orderColumns = `order_id, pet_name, customer_email, file_names,
    payment_status, fulfillment_status, checkout_id, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*order.Order, error) {
	var (
		o     order.Order
		names string
		ntID  sql.NullString
	)
	if err := row.Scan(
		&o.ID, &o.PetName, &o.CustomerEmail, &names,
		&o.PaymentStatus, &o.FulfillmentStatus, &ntID, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(names), &o.FileNames); err != nil {
		return nil, fmt.Errorf("decode file names: %w", err)
	}
	if ntID.Valid {
		o.CheckoutID = &ntID.String
	}
	return &o, nil
}

func (s *PostgresStorage) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE order_id=$1`
	return scanOrder(s.db.QueryRowContext(ctx, q, orderID))
}

func (s *PostgresStorage) FindOrderByCheckoutID(ctx context.Context, checkoutID string) (*order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE checkout_id=$1`
	return scanOrder(s.db.QueryRowContext(ctx, q, checkoutID))
}

func (s *PostgresStorage) exec(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStorage) SetCheckoutID(ctx context.Context, orderID, checkoutID string) error {
	const q = `UPDATE orders SET checkout_id=$2, updated_at=$3 WHERE order_id=$1`
	return s.exec(ctx, q, orderID, checkoutID, time.Now().UTC())
}

func (s *PostgresStorage) SetPaymentConfirmed(ctx context.Context, orderID string) error {
	const q = `UPDATE orders SET payment_status=$2, updated_at=$3 WHERE order_id=$1`
	return s.exec(ctx, q, orderID, order.PaymentConfirmed, time.Now().UTC())
}

func (s *PostgresStorage) SetFulfillmentStatus(ctx context.Context, orderID string, status order.FulfillmentStatus) error {
	const q = `UPDATE orders SET fulfillment_status=$2, updated_at=$3 WHERE order_id=$1`
	return s.exec(ctx, q, orderID, status, time.Now().UTC())
}

func (s *PostgresStorage) SetFileNames(ctx context.Context, orderID string, fileNames []string) error {
	names, err := json.Marshal(fileNames)
	if err != nil {
		return fmt.Errorf("encode file names: %w", err)
	}
	const q = `UPDATE orders SET file_names=$2, updated_at=$3 WHERE order_id=$1`
	return s.exec(ctx, q, orderID, string(names), time.Now().UTC())
}

func (s *PostgresStorage) ListReadyForFulfillment(ctx context.Context) ([]order.Order, error) {
	q := `
        SELECT ` + orderColumns + `
        FROM orders
        WHERE payment_status=$1 AND fulfillment_status=$2
        ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, q, order.PaymentConfirmed, order.FulfillmentPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
