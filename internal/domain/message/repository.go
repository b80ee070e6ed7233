package message

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for messages.
//
// It is implemented by infrastructure layers (e.g. GORM) while the service
// layer depends only on this interface.
type Repository interface {
	// Save inserts a new message.
	Save(ctx context.Context, m *Message) error

	// Get loads a message by UUID, returning ErrNotFound if missing.
	Get(ctx context.Context, id uuid.UUID) (*Message, error)

	// Delete removes a message and anything stored under it.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindUnqueued returns unprocessed, unqueued messages for a gateway.
	// When dueBefore is non-nil only messages whose send time is not after
	// it are returned.
	FindUnqueued(ctx context.Context, gatewayID string, dueBefore *time.Time, limit int) ([]*Message, error)

	// Claim atomically flips queued from false to true and reports whether
	// this caller won the claim.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)

	// Release reverts a claim made by Claim.
	Release(ctx context.Context, id uuid.UUID) error

	// MarkProcessed persists the processed timestamp and clears queued.
	MarkProcessed(ctx context.Context, m *Message) error

	// SaveResult stores the result of a send/incoming call for a persisted
	// message. It returns ErrStorage if the message does not exist.
	SaveResult(ctx context.Context, id uuid.UUID, r *Result) error

	// DeleteProcessed removes processed, unqueued messages for the gateway
	// and direction whose processed time is before cutoff.
	DeleteProcessed(ctx context.Context, gatewayID string, dir Direction, cutoff time.Time) (int64, error)
}

// ReportRepository stores the append-only revision log of delivery reports.
type ReportRepository interface {
	// Append adds a revision for (report.MessageID, report.Recipient).
	// messageUUID links the revision to a stored message when known.
	Append(ctx context.Context, messageUUID *uuid.UUID, report *DeliveryReport) (Revision, error)

	// Find returns the full history for a report, or ErrNotFound.
	Find(ctx context.Context, messageID, recipient string) (*DeliveryReport, error)

	// RevisionAtStatus returns the max-picked revision for status.
	RevisionAtStatus(ctx context.Context, messageID, recipient string, status Status) (Revision, bool, error)

	// ForMessage returns every report linked to a stored message.
	ForMessage(ctx context.Context, messageUUID uuid.UUID) ([]*DeliveryReport, error)
}
