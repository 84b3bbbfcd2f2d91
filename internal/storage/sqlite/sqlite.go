package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"

	_ "modernc.org/sqlite"
)

// SQLiteStorage is the embedded default backend, one file on disk next to
// the uploads. WAL mode keeps readers out of the writer's way; a single
// connection serializes concurrent mutations.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	const q = `
        CREATE TABLE IF NOT EXISTS orders (
            order_id TEXT PRIMARY KEY,
            pet_name TEXT NOT NULL,
            customer_email TEXT NOT NULL,
            file_names TEXT NOT NULL DEFAULT '[]',
            payment_status TEXT NOT NULL,
            fulfillment_status TEXT NOT NULL,
            checkout_id TEXT UNIQUE,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) CreateOrder(ctx context.Context, petName, customerEmail string, fileNames []string) (string, error) {
	names, err := json.Marshal(fileNames)
	if err != nil {
		return "", fmt.Errorf("encode file names: %w", err)
	}
	orderID := uuid.NewString()
	now := time.Now().UTC()
	const q = `
        INSERT INTO orders (order_id, pet_name, customer_email, file_names,
                            payment_status, fulfillment_status, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?)`
	if _, err := s.db.ExecContext(ctx, q,
		orderID, petName, customerEmail, string(names),
		order.PaymentPending, order.FulfillmentPending, now, now,
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

func (s *SQLiteStorage) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE order_id=?`
	return scanOrder(s.db.QueryRowContext(ctx, q, orderID))
}

func (s *SQLiteStorage) FindOrderByCheckoutID(ctx context.Context, checkoutID string) (*order.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE checkout_id=?`
	return scanOrder(s.db.QueryRowContext(ctx, q, checkoutID))
}

func (s *SQLiteStorage) exec(ctx context.Context, q string, args ...any) error {
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

func (s *SQLiteStorage) SetCheckoutID(ctx context.Context, orderID, checkoutID string) error {
	const q = `UPDATE orders SET checkout_id=?, updated_at=? WHERE order_id=?`
	return s.exec(ctx, q, checkoutID, time.Now().UTC(), orderID)
}

func (s *SQLiteStorage) SetPaymentConfirmed(ctx context.Context, orderID string) error {
	const q = `UPDATE orders SET payment_status=?, updated_at=? WHERE order_id=?`
	return s.exec(ctx, q, order.PaymentConfirmed, time.Now().UTC(), orderID)
}

func (s *SQLiteStorage) SetFulfillmentStatus(ctx context.Context, orderID string, status order.FulfillmentStatus) error {
	const q = `UPDATE orders SET fulfillment_status=?, updated_at=? WHERE order_id=?`
	return s.exec(ctx, q, status, time.Now().UTC(), orderID)
}

func (s *SQLiteStorage) SetFileNames(ctx context.Context, orderID string, fileNames []string) error {
	names, err := json.Marshal(fileNames)
	if err != nil {
		return fmt.Errorf("encode file names: %w", err)
	}
	const q = `UPDATE orders SET file_names=?, updated_at=? WHERE order_id=?`
	return s.exec(ctx, q, string(names), time.Now().UTC(), orderID)
}

func (s *SQLiteStorage) ListReadyForFulfillment(ctx context.Context) ([]order.Order, error) {
	q := `
        SELECT ` + orderColumns + `
        FROM orders
        WHERE payment_status=? AND fulfillment_status=?
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
