package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/queue"
)

// DefaultScanLimit caps how many messages are claimed per gateway per scan.
const DefaultScanLimit = 100

// QueueProcessor moves stored messages into the work queue and removes
// processed messages once their retention has passed.
type QueueProcessor struct {
	messages message.Repository
	gateways *gateway.Registry
	queue    queue.Queue
	limit    int

	now func() time.Time
}

// NewQueueProcessor creates a queue processor. limit <= 0 uses DefaultScanLimit.
func NewQueueProcessor(messages message.Repository, gateways *gateway.Registry, q queue.Queue, limit int) *QueueProcessor {
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	return &QueueProcessor{
		messages: messages,
		gateways: gateways,
		queue:    q,
		limit:    limit,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProcessUnqueued claims due messages for every gateway and submits them to
// the work queue. Schedule-aware gateways get their messages regardless of
// send time. A claim is released when the submission fails, so the next scan
// picks the message up again.
func (p *QueueProcessor) ProcessUnqueued(ctx context.Context) (int, error) {
	var (
		submitted int
		errs      []error
	)
	for _, g := range p.gateways.All() {
		var due *time.Time
		if !g.Capabilities().ScheduleAware {
			now := p.now()
			due = &now
		}

		msgs, err := p.messages.FindUnqueued(ctx, g.ID, due, p.limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("gateway %s: find unqueued: %w", g.ID, err))
			continue
		}

		for _, m := range msgs {
			ok, err := p.messages.Claim(ctx, m.UUID)
			if err != nil {
				errs = append(errs, fmt.Errorf("claim %s: %w", m.UUID, err))
				continue
			}
			if !ok {
				// Another scanner won the claim.
				continue
			}

			if err := p.queue.Push(ctx, queue.Item{ID: m.UUID.String()}); err != nil {
				errs = append(errs, fmt.Errorf("submit %s: %w", m.UUID, err))
				if rErr := p.messages.Release(ctx, m.UUID); rErr != nil {
					log.Printf("[Queue] Failed to release claim on %s: %v", m.UUID, rErr)
				}
				continue
			}
			submitted++
		}
	}

	if submitted > 0 {
		depth, err := p.queue.Len(ctx)
		if err != nil {
			log.Printf("[Queue] Submitted %d message(s) to the work queue", submitted)
		} else {
			log.Printf("[Queue] Submitted %d message(s) to the work queue (depth=%d)", submitted, depth)
		}
	}
	return submitted, errors.Join(errs...)
}

// GarbageCollection deletes processed messages older than their gateway's
// retention for each direction.
func (p *QueueProcessor) GarbageCollection(ctx context.Context) (int64, error) {
	var (
		total int64
		errs  []error
	)
	now := p.now()
	for _, g := range p.gateways.All() {
		for _, dir := range []message.Direction{message.DirectionOutgoing, message.DirectionIncoming} {
			retention := g.RetentionFor(dir)
			if retention == gateway.RetainForever {
				continue
			}
			cutoff := now.Add(-time.Duration(retention) * time.Second)
			n, err := p.messages.DeleteProcessed(ctx, g.ID, dir, cutoff)
			if err != nil {
				errs = append(errs, fmt.Errorf("gateway %s: collect %s messages: %w", g.ID, dir, err))
				continue
			}
			total += n
		}
	}

	if total > 0 {
		log.Printf("[Queue] Garbage collected %d message(s)", total)
	}
	return total, errors.Join(errs...)
}
