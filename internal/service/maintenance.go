package service

import (
	"context"
	"errors"
	"log"
)

// Maintenance is the periodic tick driven by the scheduler.
type Maintenance struct {
	queue         *QueueProcessor
	verifications *VerificationService
}

// NewMaintenance creates the tick. verifications may be nil.
func NewMaintenance(queue *QueueProcessor, verifications *VerificationService) *Maintenance {
	return &Maintenance{queue: queue, verifications: verifications}
}

// ProcessBatch runs, in order: the unqueued scan, garbage collection and the
// expired verification purge. Every step runs even if an earlier one fails.
func (m *Maintenance) ProcessBatch(ctx context.Context) error {
	var errs []error

	if _, err := m.queue.ProcessUnqueued(ctx); err != nil {
		log.Printf("[Maintenance] Unqueued scan failed: %v", err)
		errs = append(errs, err)
	}
	if _, err := m.queue.GarbageCollection(ctx); err != nil {
		log.Printf("[Maintenance] Garbage collection failed: %v", err)
		errs = append(errs, err)
	}
	if m.verifications != nil {
		if _, err := m.verifications.PurgeExpiredVerifications(ctx); err != nil {
			log.Printf("[Maintenance] Verification purge failed: %v", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
