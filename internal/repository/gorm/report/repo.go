package reportgorm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/db"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"gorm.io/gorm"
)

// Repository is a GORM-backed implementation of message.ReportRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a report repository using the given DB adapter.
func NewRepository(d db.DB) *Repository {
	return &Repository{db: d.Conn().(*gorm.DB)}
}

func toRevision(m *RevisionModel) message.Revision {
	return message.Revision{
		ID:            m.ID,
		Status:        message.Status(m.Status),
		StatusMessage: m.StatusMessage,
		StatusTime:    m.StatusTime,
	}
}

// Append inserts a revision. Without messageUUID the link of earlier
// revisions of the same report is carried over.
func (r *Repository) Append(ctx context.Context, messageUUID *uuid.UUID, rep *message.DeliveryReport) (message.Revision, error) {
	if messageUUID == nil {
		var prev []RevisionModel
		err := r.db.WithContext(ctx).
			Where("message_id = ? AND recipient = ? AND message_uuid IS NOT NULL", rep.MessageID, rep.Recipient).
			Order("id DESC").
			Limit(1).
			Find(&prev).Error
		if err != nil {
			return message.Revision{}, err
		}
		if len(prev) > 0 {
			messageUUID = prev[0].MessageUUID
		}
	}

	model := &RevisionModel{
		MessageID:     rep.MessageID,
		Recipient:     rep.Recipient,
		GatewayID:     rep.GatewayID,
		MessageUUID:   messageUUID,
		Status:        string(rep.Status),
		StatusMessage: rep.StatusMessage,
		StatusTime:    rep.StatusTime,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return message.Revision{}, err
	}
	return toRevision(model), nil
}

// Find returns the full history of a report.
func (r *Repository) Find(ctx context.Context, messageID, recipient string) (*message.DeliveryReport, error) {
	var models []RevisionModel
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND recipient = ?", messageID, recipient).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: report %s/%s", message.ErrNotFound, messageID, recipient)
	}
	return group(models)[0], nil
}

// RevisionAtStatus picks the revision with the latest status time; equal
// times resolve to the highest id, i.e. the last applied.
func (r *Repository) RevisionAtStatus(ctx context.Context, messageID, recipient string, status message.Status) (message.Revision, bool, error) {
	var models []RevisionModel
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND recipient = ? AND status = ?", messageID, recipient, string(status)).
		Order("status_time DESC, id DESC").
		Limit(1).
		Find(&models).Error
	if err != nil {
		return message.Revision{}, false, err
	}
	if len(models) == 0 {
		return message.Revision{}, false, nil
	}
	return toRevision(&models[0]), true, nil
}

// ForMessage returns every report linked to a stored message.
func (r *Repository) ForMessage(ctx context.Context, messageUUID uuid.UUID) ([]*message.DeliveryReport, error) {
	var models []RevisionModel
	err := r.db.WithContext(ctx).
		Where("message_uuid = ?", messageUUID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return group(models), nil
}

// group folds ordered revision rows into reports, in first-seen order.
func group(models []RevisionModel) []*message.DeliveryReport {
	var out []*message.DeliveryReport
	index := map[[2]string]*message.DeliveryReport{}
	for i := range models {
		m := &models[i]
		key := [2]string{m.MessageID, m.Recipient}
		rep, ok := index[key]
		if !ok {
			rep = &message.DeliveryReport{MessageID: m.MessageID, Recipient: m.Recipient, GatewayID: m.GatewayID}
			index[key] = rep
			out = append(out, rep)
		}
		rep.Append(toRevision(m))
	}
	return out
}

var _ message.ReportRepository = (*Repository)(nil)
