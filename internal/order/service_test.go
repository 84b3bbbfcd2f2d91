package order

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mrmateussiilva/petstory-mvp/internal/payment"
	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type mockRepo struct {
	createOrderFn   func(ctx context.Context, petName, customerEmail string, fileNames []string) (string, error)
	getOrderFn      func(ctx context.Context, orderID string) (*order.Order, error)
	setCheckoutIDFn func(ctx context.Context, orderID, checkoutID string) error
	setFileNamesFn  func(ctx context.Context, orderID string, fileNames []string) error
}

func (m *mockRepo) CreateOrder(ctx context.Context, petName, customerEmail string, fileNames []string) (string, error) {
	return m.createOrderFn(ctx, petName, customerEmail, fileNames)
}
func (m *mockRepo) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	return m.getOrderFn(ctx, orderID)
}
func (m *mockRepo) SetCheckoutID(ctx context.Context, orderID, checkoutID string) error {
	return m.setCheckoutIDFn(ctx, orderID, checkoutID)
}
func (m *mockRepo) SetFileNames(ctx context.Context, orderID string, fileNames []string) error {
	return m.setFileNamesFn(ctx, orderID, fileNames)
}

type mockCheckout struct {
	calls int
	fn    func(orderID string, value decimal.Decimal, successURL, cancelURL string) (*payment.Checkout, error)
}

func (m *mockCheckout) CreateCheckout(ctx context.Context, orderID string, value decimal.Decimal, customerName, customerEmail, successURL, cancelURL string) (*payment.Checkout, error) {
	m.calls++
	return m.fn(orderID, value, successURL, cancelURL)
}

type mockFiles struct {
	saved map[string][]byte
	err   error
}

func (m *mockFiles) SaveUpload(orderID, name string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[name] = data
	return nil
}

func okRepo() *mockRepo {
	return &mockRepo{
		createOrderFn: func(ctx context.Context, petName, customerEmail string, fileNames []string) (string, error) {
			return "order-1", nil
		},
		setCheckoutIDFn: func(ctx context.Context, orderID, checkoutID string) error { return nil },
		setFileNamesFn:  func(ctx context.Context, orderID string, fileNames []string) error { return nil },
	}
}

func okCheckout() *mockCheckout {
	return &mockCheckout{fn: func(orderID string, value decimal.Decimal, successURL, cancelURL string) (*payment.Checkout, error) {
		return &payment.Checkout{ID: "chk-1", URL: "https://sandbox.asaas.com/checkoutSession/show?id=chk-1"}, nil
	}}
}

const publicBase = "https://petstory.live"

func TestCreateOrderMissingFields(t *testing.T) {
	svc := NewService(okRepo(), &mockFiles{}, okCheckout(), publicBase, decimal.RequireFromString("29.90"))
	_, _, err := svc.CreateOrder(context.Background(), "  ", "a@x.com", nil)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestCreateOrderTooManyFiles(t *testing.T) {
	uploads := make([]Upload, MaxFiles+1)
	for i := range uploads {
		uploads[i] = Upload{Name: "p.jpg", Data: []byte("x")}
	}
	svc := NewService(okRepo(), &mockFiles{}, okCheckout(), publicBase, decimal.RequireFromString("29.90"))
	_, _, err := svc.CreateOrder(context.Background(), "Rex", "a@x.com", uploads)
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestCreateOrderFileTooLarge(t *testing.T) {
	uploads := []Upload{{Name: "big.jpg", Data: bytes.Repeat([]byte("x"), MaxFileBytes+1)}}
	svc := NewService(okRepo(), &mockFiles{}, okCheckout(), publicBase, decimal.RequireFromString("29.90"))
	_, _, err := svc.CreateOrder(context.Background(), "Rex", "a@x.com", uploads)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Contains(t, err.Error(), "big.jpg")
}

func TestCreateOrderRejectsNonPublicCallback(t *testing.T) {
	for _, base := range []string{"", "http://localhost:5500", "https://127.0.0.1:8443", "http://petstory.live"} {
		t.Run("base="+base, func(t *testing.T) {
			chk := okCheckout()
			svc := NewService(okRepo(), &mockFiles{}, chk, base, decimal.RequireFromString("29.90"))
			_, _, err := svc.CreateOrder(context.Background(), "Rex", "a@x.com", nil)
			assert.ErrorIs(t, err, ErrCallbackNotPublic)
			assert.Zero(t, chk.calls, "gateway must not be called")
		})
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	var gotNames []string
	var gotCheckoutID string
	repo := okRepo()
	repo.setFileNamesFn = func(ctx context.Context, orderID string, fileNames []string) error {
		gotNames = fileNames
		return nil
	}
	repo.setCheckoutIDFn = func(ctx context.Context, orderID, checkoutID string) error {
		gotCheckoutID = checkoutID
		return nil
	}
	var gotSuccess string
	chk := &mockCheckout{fn: func(orderID string, value decimal.Decimal, successURL, cancelURL string) (*payment.Checkout, error) {
		assert.Equal(t, "order-1", orderID)
		assert.True(t, value.Equal(decimal.RequireFromString("29.90")))
		gotSuccess = successURL
		return &payment.Checkout{ID: "chk-1", URL: "https://sandbox.asaas.com/checkoutSession/show?id=chk-1"}, nil
	}}
	fs := &mockFiles{}

	svc := NewService(repo, fs, chk, publicBase+"/", decimal.RequireFromString("29.90"))
	orderID, checkoutURL, err := svc.CreateOrder(context.Background(), "Rex", "a@x.com",
		[]Upload{{Name: "p1.jpg", Data: []byte("photo")}})

	assert.NoError(t, err)
	assert.Equal(t, "order-1", orderID)
	assert.Contains(t, checkoutURL, "chk-1")
	assert.Equal(t, []string{"p1.jpg"}, gotNames)
	assert.Equal(t, "chk-1", gotCheckoutID)
	assert.Contains(t, fs.saved, "p1.jpg")
	assert.Equal(t, publicBase+"/?checkout=success", gotSuccess)
}

func TestCreateOrderBaseURLWithoutScheme(t *testing.T) {
	var gotSuccess string
	chk := &mockCheckout{fn: func(orderID string, value decimal.Decimal, successURL, cancelURL string) (*payment.Checkout, error) {
		gotSuccess = successURL
		return &payment.Checkout{ID: "chk-1", URL: "u"}, nil
	}}
	svc := NewService(okRepo(), &mockFiles{}, chk, "petstory.live", decimal.RequireFromString("29.90"))
	_, _, err := svc.CreateOrder(context.Background(), "Rex", "a@x.com", nil)
	assert.NoError(t, err)
	assert.Equal(t, "https://petstory.live/?checkout=success", gotSuccess)
}

func TestCreateOrderCheckoutFailure(t *testing.T) {
	chk := &mockCheckout{fn: func(orderID string, value decimal.Decimal, successURL, cancelURL string) (*payment.Checkout, error) {
		return nil, errors.New("asaas: domain not registered")
	}}
	var checkoutIDSet bool
	repo := okRepo()
	repo.setCheckoutIDFn = func(ctx context.Context, orderID, checkoutID string) error {
		checkoutIDSet = true
		return nil
	}
	svc := NewService(repo, &mockFiles{}, chk, publicBase, decimal.RequireFromString("29.90"))
	_, _, err := svc.CreateOrder(context.Background(), "Rex", "a@x.com", nil)
	assert.ErrorIs(t, err, ErrCheckoutFailed)
	assert.False(t, checkoutIDSet)
}
