package workers

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"shopping-assistant/internal/services"
)

// PrefetchWorker warms the product cache in the background. The session
// service enqueues the ids of products the assistant suggested; by the time
// the shopper asks a follow-up about one of them, the record usually
// resolves from cache instead of a platform round trip.
type PrefetchWorker struct {
	*BaseWorker

	products *services.ProductService
	logger   *log.Logger

	queue  chan string
	seen   map[string]time.Time
	seenMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// seenWindow suppresses re-enqueues of an id fetched recently
const seenWindow = 5 * time.Minute

// NewPrefetchWorker creates a prefetch worker
func NewPrefetchWorker(config WorkerConfig, products *services.ProductService, logger *log.Logger) *PrefetchWorker {
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}

	return &PrefetchWorker{
		BaseWorker: NewBaseWorker(config),
		products:   products,
		logger:     logger,
		queue:      make(chan string, config.QueueSize),
		seen:       make(map[string]time.Time),
	}
}

// Enqueue adds product ids to the prefetch queue. It never blocks: when the
// queue is full the ids are dropped and counted in the stats. Safe to call
// from any goroutine, including while the worker is stopped.
func (w *PrefetchWorker) Enqueue(productIDs []string) {
	for _, id := range productIDs {
		if id == "" || w.recentlyFetched(id) {
			continue
		}
		select {
		case w.queue <- id:
		default:
			w.recordJobDropped()
		}
	}
}

// Start begins draining the queue with the configured concurrency
func (w *PrefetchWorker) Start(ctx context.Context) error {
	if w.IsRunning() {
		return fmt.Errorf("worker %s already running", w.Name())
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.setRunning(true)

	var wg sync.WaitGroup
	for i := 0; i < w.Config().Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(runCtx)
		}()
	}

	go func() {
		wg.Wait()
		close(w.done)
	}()

	w.logger.Printf("prefetch worker started (concurrency: %d, queue: %d)",
		w.Config().Concurrency, w.Config().QueueSize)
	return nil
}

// Stop shuts the worker down, waiting up to ShutdownTimeout for in-flight
// fetches to finish.
func (w *PrefetchWorker) Stop(ctx context.Context) error {
	if !w.IsRunning() {
		return nil
	}

	w.cancel()

	timeout := w.Config().ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	select {
	case <-w.done:
	case <-time.After(timeout):
		w.setRunning(false)
		return fmt.Errorf("worker %s shutdown timed out", w.Name())
	case <-ctx.Done():
		w.setRunning(false)
		return ctx.Err()
	}

	w.setRunning(false)
	w.logger.Printf("prefetch worker stopped")
	return nil
}

// run is one consumer loop
func (w *PrefetchWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case productID := <-w.queue:
			w.process(ctx, productID)
		}
	}
}

// process fetches one product, which writes it through to the cache
func (w *PrefetchWorker) process(ctx context.Context, productID string) {
	start := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if _, err := w.products.GetProduct(fetchCtx, productID); err != nil {
		w.logger.Printf("prefetch failed for %s: %v", productID, err)
		w.recordJobFailure(start)
		return
	}

	w.markFetched(productID)
	w.recordJobSuccess(start)
}

func (w *PrefetchWorker) recentlyFetched(productID string) bool {
	w.seenMu.Lock()
	defer w.seenMu.Unlock()
	at, ok := w.seen[productID]
	return ok && time.Since(at) < seenWindow
}

func (w *PrefetchWorker) markFetched(productID string) {
	w.seenMu.Lock()
	defer w.seenMu.Unlock()

	// Opportunistic pruning keeps the map bounded
	if len(w.seen) > 4096 {
		for id, at := range w.seen {
			if time.Since(at) >= seenWindow {
				delete(w.seen, id)
			}
		}
	}
	w.seen[productID] = time.Now()
}
