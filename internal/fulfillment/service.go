// Package fulfillment owns the order state machine: once payment is
// confirmed it generates the line-art pages, compiles the book, notifies
// the operator and marks the order processed. Any failure leaves the
// order pending so the next trigger retries it wholesale.
package fulfillment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mrmateussiilva/petstory-mvp/internal/artifact"
	"github.com/mrmateussiilva/petstory-mvp/internal/logger"
	"github.com/mrmateussiilva/petstory-mvp/internal/pdf"
	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	SetFulfillmentStatus(ctx context.Context, orderID string, status order.FulfillmentStatus) error
}

type Generator interface {
	Generate(ctx context.Context, image []byte, prompt string) ([]byte, error)
}

type Notifier interface {
	Notify(ctx context.Context, o *order.Order, book []byte) error
}

type FileStore interface {
	ReadUpload(orderID, name string) ([]byte, error)
	WriteGenerated(orderID, sourceName string, data []byte) (string, error)
	ListGenerated(orderID string) ([][]byte, error)
}

type Service struct {
	repo     OrderRepository
	gen      Generator
	notifier Notifier
	files    FileStore

	// genLimit caps concurrent generator calls per order.
	genLimit int

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewService(repo OrderRepository, gen Generator, notifier Notifier, files FileStore) *Service {
	return &Service{
		repo:     repo,
		gen:      gen,
		notifier: notifier,
		files:    files,
		genLimit: 3,
		inflight: make(map[string]struct{}),
	}
}

func (s *Service) tryAcquire(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[orderID]; busy {
		return false
	}
	s.inflight[orderID] = struct{}{}
	return true
}

func (s *Service) release(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, orderID)
}

// Process drives one order from PaymentConfirmed to Processed. It is safe
// to call from the webhook trigger and the periodic scan at the same
// time: a second concurrent call for the same order is a no-op, and the
// eligibility re-check makes duplicate sequential calls no-ops too.
func (s *Service) Process(ctx context.Context, orderID string) error {
	if !s.tryAcquire(orderID) {
		logger.Log.Debug("fulfillment already running", zap.String("order_id", orderID))
		return nil
	}
	defer s.release(orderID)

	o, err := s.repo.GetOrder(ctx, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.Log.Info("fulfillment: unknown order", zap.String("order_id", orderID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if !o.ReadyForFulfillment() {
		return nil
	}

	if err := s.run(ctx, o); err != nil {
		logger.Log.Error("fulfillment failed, order stays pending",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return err
	}

	if err := s.repo.SetFulfillmentStatus(ctx, o.ID, order.FulfillmentProcessed); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	logger.Log.Info("order processed", zap.String("order_id", o.ID))
	return nil
}

func (s *Service) run(ctx context.Context, o *order.Order) error {
	if err := s.generatePages(ctx, o); err != nil {
		return err
	}

	pages, err := s.files.ListGenerated(o.ID)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("list pages: %w", err)
	}

	// Pedidos sem imagem ainda recebem o email de resumo, sem livro.
	var book []byte
	if len(pages) > 0 {
		book, err = pdf.BuildBook(o.PetName, pages)
		if err != nil {
			return fmt.Errorf("build book: %w", err)
		}
	}

	if err := s.notifier.Notify(ctx, o, book); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// generatePages fans out over the order's image files; the first failure
// cancels the rest so the order retries as a unit.
func (s *Service) generatePages(ctx context.Context, o *order.Order) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.genLimit)

	for _, name := range o.FileNames {
		if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		name := name
		g.Go(func() error {
			src, err := s.files.ReadUpload(o.ID, name)
			if errors.Is(err, os.ErrNotExist) {
				logger.Log.Warn("upload missing, skipping",
					zap.String("order_id", o.ID),
					zap.String("file", name),
				)
				return nil
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			out, err := s.gen.Generate(ctx, src, artifact.PromptLineArt)
			if err != nil {
				return fmt.Errorf("generate %s: %w", name, err)
			}
			if _, err := s.files.WriteGenerated(o.ID, name, out); err != nil {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
