package fulfillment

import (
	"context"
	"time"

	"github.com/mrmateussiilva/petstory-mvp/internal/logger"
	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"
	"go.uber.org/zap"
)

type ReadyLister interface {
	ListReadyForFulfillment(ctx context.Context) ([]order.Order, error)
}

type Processor interface {
	Process(ctx context.Context, orderID string) error
}

// Dispatcher feeds paid orders to a worker pool. Orders arrive two ways:
// the webhook enqueues immediately after confirmation, and a periodic
// scan of the store picks up anything missed or failed, so delivery
// stays eventual even when the channel is full.
type Dispatcher struct {
	proc     Processor
	lister   ReadyLister
	workers  int
	interval time.Duration
	jobs     chan string
}

func NewDispatcher(proc Processor, lister ReadyLister, workers int, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		proc:     proc,
		lister:   lister,
		workers:  workers,
		interval: interval,
		jobs:     make(chan string, workers*3),
	}
}

// Enqueue never blocks; a full channel just defers the order to the next
// scan cycle.
func (d *Dispatcher) Enqueue(orderID string) {
	select {
	case d.jobs <- orderID:
	default:
		logger.Log.Warn("jobs channel full, order waits for next scan",
			zap.String("order_id", orderID))
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	for i := 1; i <= d.workers; i++ {
		go workerLoop(ctx, i, d.jobs, d.proc)
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	logger.Log.Info("dispatcher started", zap.Int("workers", d.workers))
	for {
		select {
		case <-ctx.Done():
			// The jobs channel is never closed: the webhook handler may
			// still Enqueue while the HTTP server drains, and workers
			// exit through ctx.Done anyway.
			logger.Log.Info("dispatcher stopping")
			return
		case <-ticker.C:
			orders, err := d.lister.ListReadyForFulfillment(ctx)
			if err != nil {
				logger.Log.Error("scan failed", zap.Error(err))
				continue
			}
			if len(orders) == 0 {
				continue
			}
			logger.Log.Info("orders ready for fulfillment", zap.Int("count", len(orders)))
			for _, o := range orders {
				d.Enqueue(o.ID)
			}
		}
	}
}

func workerLoop(ctx context.Context, id int, jobs <-chan string, proc Processor) {
	logger.Log.Debug("worker started", zap.Int("worker", id))
	for {
		select {
		case <-ctx.Done():
			return
		case orderID, ok := <-jobs:
			if !ok {
				return
			}
			if err := proc.Process(ctx, orderID); err != nil {
				logger.Log.Error("process failed",
					zap.Int("worker", id),
					zap.String("order_id", orderID),
					zap.Error(err),
				)
			}
		}
	}
}
