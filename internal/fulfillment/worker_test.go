package fulfillment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"
	"github.com/stretchr/testify/assert"
)

type mockProcessor struct {
	mu        sync.Mutex
	processed []string
	err       error
}

func (m *mockProcessor) Process(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, orderID)
	return m.err
}

func (m *mockProcessor) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.processed...)
}

type mockLister struct {
	mu     sync.Mutex
	orders []order.Order
	err    error
}

func (m *mockLister) ListReadyForFulfillment(ctx context.Context) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders, m.err
}

func TestWorkerLoopProcessesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := &mockProcessor{}
	jobs := make(chan string, 2)
	jobs <- "order-1"
	jobs <- "order-2"
	close(jobs)

	workerLoop(ctx, 1, jobs, proc)

	assert.Equal(t, []string{"order-1", "order-2"}, proc.all())
}

func TestWorkerLoopKeepsGoingAfterError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := &mockProcessor{err: errors.New("pipeline failure")}
	jobs := make(chan string, 2)
	jobs <- "order-1"
	jobs <- "order-2"
	close(jobs)

	workerLoop(ctx, 2, jobs, proc)

	assert.Len(t, proc.all(), 2, "an error must not kill the worker")
}

func TestDispatcherScanEnqueuesReadyOrders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := &mockProcessor{}
	lister := &mockLister{orders: []order.Order{{ID: "order-1"}, {ID: "order-2"}}}
	d := NewDispatcher(proc, lister, 1, 10*time.Millisecond)

	go d.Run(ctx)

	assert.Eventually(t, func() bool {
		return len(proc.all()) >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEnqueueDoesNotBlockWhenFull(t *testing.T) {
	d := NewDispatcher(&mockProcessor{}, &mockLister{}, 1, time.Hour)

	// No workers running: fill the channel past its capacity.
	for i := 0; i < cap(d.jobs)+5; i++ {
		d.Enqueue("order-x")
	}
	assert.Len(t, d.jobs, cap(d.jobs))
}

func TestEnqueueAfterShutdownDoesNotPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(&mockProcessor{}, &mockLister{}, 1, time.Hour)

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	// A webhook can still land while the HTTP server drains.
	assert.NotPanics(t, func() { d.Enqueue("order-late") })
}

func TestEnqueueReachesWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := &mockProcessor{}
	d := NewDispatcher(proc, &mockLister{}, 1, time.Hour)

	go d.Run(ctx)
	d.Enqueue("order-7")

	assert.Eventually(t, func() bool {
		got := proc.all()
		return len(got) == 1 && got[0] == "order-7"
	}, 2*time.Second, 5*time.Millisecond)
}
