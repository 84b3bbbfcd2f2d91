package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrmateussiilva/petstory-mvp/internal/logger"
	"github.com/mrmateussiilva/petstory-mvp/internal/payment"
	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	MaxFiles     = 5
	MaxFileBytes = 10 << 20 // 10 MB per upload
)

var (
	ErrMissingFields     = errors.New("pet name and customer email are required")
	ErrTooManyFiles      = fmt.Errorf("at most %d images per order", MaxFiles)
	ErrFileTooLarge      = errors.New("each file must be at most 10 MB")
	ErrCallbackNotPublic = errors.New("checkout callback URLs must be public HTTPS (Asaas rejects localhost); set FRONTEND_BASE_URL to a registered public domain")
	ErrCheckoutFailed    = errors.New("failed to create checkout")
)

type CheckoutClient interface {
	CreateCheckout(ctx context.Context, orderID string, value decimal.Decimal, customerName, customerEmail, successURL, cancelURL string) (*payment.Checkout, error)
}

type FileSaver interface {
	SaveUpload(orderID, name string, data []byte) error
}

type Upload struct {
	Name string
	Data []byte
}

type Service struct {
	repo     OrderRepository
	files    FileSaver
	checkout CheckoutClient
	baseURL  string
	value    decimal.Decimal
}

func NewService(repo OrderRepository, files FileSaver, checkout CheckoutClient, frontendBaseURL string, checkoutValue decimal.Decimal) *Service {
	return &Service{
		repo:     repo,
		files:    files,
		checkout: checkout,
		baseURL:  frontendBaseURL,
		value:    checkoutValue,
	}
}

// CreateOrder persists a new pending order with its uploads and opens the
// checkout session. Returns the order id and the URL the customer is
// redirected to.
func (s *Service) CreateOrder(ctx context.Context, petName, customerEmail string, uploads []Upload) (string, string, error) {
	petName = strings.TrimSpace(petName)
	customerEmail = strings.TrimSpace(customerEmail)
	if petName == "" || customerEmail == "" {
		return "", "", ErrMissingFields
	}
	if len(uploads) > MaxFiles {
		return "", "", ErrTooManyFiles
	}
	for _, u := range uploads {
		if len(u.Data) > MaxFileBytes {
			return "", "", fmt.Errorf("%w (%s)", ErrFileTooLarge, u.Name)
		}
	}
	base, err := callbackBase(s.baseURL)
	if err != nil {
		return "", "", err
	}

	orderID, err := s.repo.CreateOrder(ctx, petName, customerEmail, nil)
	if err != nil {
		return "", "", fmt.Errorf("create order: %w", err)
	}

	var fileNames []string
	for _, u := range uploads {
		if u.Name == "" {
			continue
		}
		if err := s.files.SaveUpload(orderID, u.Name, u.Data); err != nil {
			return "", "", err
		}
		fileNames = append(fileNames, u.Name)
	}
	if err := s.repo.SetFileNames(ctx, orderID, fileNames); err != nil {
		return "", "", fmt.Errorf("set file names: %w", err)
	}

	chk, err := s.checkout.CreateCheckout(ctx, orderID, s.value, petName, customerEmail,
		base+"/?checkout=success", base+"/?checkout=cancel")
	if err != nil {
		logger.Log.Warn("checkout creation failed",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return "", "", fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	if err := s.repo.SetCheckoutID(ctx, orderID, chk.ID); err != nil {
		return "", "", fmt.Errorf("set checkout id: %w", err)
	}

	logger.Log.Info("order created",
		zap.String("order_id", orderID),
		zap.String("checkout_id", chk.ID),
		zap.Int("files", len(fileNames)),
	)
	return orderID, chk.URL, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// callbackBase validates the configured frontend URL against the gateway
// constraint: success/cancel URLs must live on a public HTTPS domain.
func callbackBase(raw string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return "", ErrCallbackNotPublic
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	if strings.Contains(base, "localhost") || strings.Contains(base, "127.0.0.1") {
		return "", ErrCallbackNotPublic
	}
	if !strings.HasPrefix(base, "https://") {
		return "", ErrCallbackNotPublic
	}
	return base, nil
}
