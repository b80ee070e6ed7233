// Package worker consumes the work queue and runs each claimed message
// through the pipeline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/queue"
)

// DefaultPopTimeout is how long Run waits for the first item of a batch.
const DefaultPopTimeout = 5 * time.Second

// settleTimeout bounds the writes that record a failure or release a claim.
// They run detached from the batch context, which may already be done.
const settleTimeout = 5 * time.Second

// Processor loads and processes claimed messages.
type Processor interface {
	Get(ctx context.Context, id uuid.UUID) (*message.Message, error)
	Process(ctx context.Context, m *message.Message) error
	Fail(ctx context.Context, m *message.Message, cause error) error
	// Release hands a claimed message back to the next unqueued scan.
	Release(ctx context.Context, id uuid.UUID) error
}

// Worker drains the queue in batches using a small worker pool.
type Worker struct {
	queue     queue.Queue
	processor Processor

	batchSize         int
	maxWorkers        int
	perMessageTimeout time.Duration
	popTimeout        time.Duration
}

// New creates a worker. The config values are passed explicitly from the
// caller so this package does not depend on env.
func New(
	q queue.Queue,
	processor Processor,
	batchSize int,
	maxWorkers int,
	perMessageTimeout time.Duration,
) *Worker {
	// Apply sane defaults if config values are missing or invalid.
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if perMessageTimeout <= 0 {
		perMessageTimeout = 5 * time.Second
	}

	return &Worker{
		queue:             q,
		processor:         processor,
		batchSize:         batchSize,
		maxWorkers:        maxWorkers,
		perMessageTimeout: perMessageTimeout,
		popTimeout:        DefaultPopTimeout,
	}
}

// Run processes batches until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("[Worker] Started (batchSize=%d, maxWorkers=%d)", w.batchSize, w.maxWorkers)
	for ctx.Err() == nil {
		if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[Worker] Batch failed: %v", err)
			// Back off a little so a broken queue does not spin.
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
	log.Println("[Worker] Stopped.")
}

// ProcessBatch waits for one item, takes whatever else is immediately
// available up to the batch size and processes them with the worker pool.
// It returns the number of items taken from the queue.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	first, err := w.queue.Pop(ctx, w.popTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to pop queue item: %w", err)
	}
	if first == nil {
		return 0, nil
	}

	items := []queue.Item{*first}
	for len(items) < w.batchSize {
		it, err := w.queue.TryPop(ctx)
		if err != nil {
			log.Printf("[Worker] Failed to pop queue item: %v", err)
			break
		}
		if it == nil {
			break
		}
		items = append(items, *it)
	}

	// Decide how many workers we need for this batch.
	workerCount := min(len(items), w.maxWorkers)

	// handled[i] is written only by the worker owning index i.
	handled := make([]bool, len(items))

	var wg sync.WaitGroup

	// Each worker processes a "stride" of items: with 4 workers,
	// worker 1 takes indices 0, 4, 8, ... and worker 2 takes 1, 5, 9, ...
	for n := 0; n < workerCount; n++ {
		wg.Add(1)

		go func(workerID, start int) {
			defer wg.Done()

			for i := start; i < len(items); i += workerCount {
				if ctx.Err() != nil {
					log.Printf("[Worker %d] Context cancelled, stopping worker", workerID)
					return
				}

				// Wrap the parent context with a per-message timeout.
				msgCtx, cancel := context.WithTimeout(ctx, w.perMessageTimeout)
				if err := w.handle(msgCtx, items[i]); err != nil {
					log.Printf("[Worker %d] Failed to process %s: %v", workerID, items[i].ID, err)
				}
				cancel()
				handled[i] = true
			}
		}(n+1, n)
	}

	wg.Wait()

	for i, ok := range handled {
		if !ok {
			w.release(ctx, items[i])
		}
	}
	return len(items), nil
}

// release returns the claim of an item the batch never got to, so the
// message is not left queued with nobody working on it.
func (w *Worker) release(ctx context.Context, item queue.Item) {
	id, err := uuid.Parse(item.ID)
	if err != nil {
		return
	}
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()
	if err := w.processor.Release(relCtx, id); err != nil {
		log.Printf("[Worker] Failed to release %s: %v", id, err)
	}
}

// handle processes a single item. Messages that fail are marked processed
// with the error as their result so they are not retried forever.
func (w *Worker) handle(ctx context.Context, item queue.Item) error {
	id, err := uuid.Parse(item.ID)
	if err != nil {
		return fmt.Errorf("invalid queue item id %q: %w", item.ID, err)
	}

	m, err := w.processor.Get(ctx, id)
	if errors.Is(err, message.ErrNotFound) {
		// Deleted after it was claimed; nothing left to do.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}

	if err := w.processor.Process(ctx, m); err != nil {
		// ctx may have expired; the failure must still be written.
		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
		defer cancel()
		if fErr := w.processor.Fail(failCtx, m, err); fErr != nil {
			log.Printf("[Worker] Failed to persist failure for %s: %v", m.UUID, fErr)
		}
		return err
	}
	return nil
}
