package messagegorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/db"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is a GORM-backed implementation of the message.Repository interface.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a message repository using the given DB adapter.
func NewRepository(d db.DB) *Repository {
	return &Repository{
		db: d.Conn().(*gorm.DB),
	}
}

// Save inserts a new message record into the database.
func (r *Repository) Save(ctx context.Context, msg *message.Message) error {
	dbModel := fromDomain(msg)
	return r.db.WithContext(ctx).Create(dbModel).Error
}

// Get loads a message and its stored result.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*message.Message, error) {
	var model MessageModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: message %s", message.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	m := toDomain(&model)

	var results []ResultModel
	if err := r.db.WithContext(ctx).Where("message_id = ?", id).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) > 0 {
		m.Result = resultToDomain(&results[0])
	}
	return m, nil
}

// Delete removes a message together with its result.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&ResultModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&MessageModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: message %s", message.ErrNotFound, id)
		}
		return nil
	})
}

// FindUnqueued returns up to limit unprocessed, unqueued messages of a
// gateway ordered by creation time, using SELECT ... FOR UPDATE SKIP LOCKED
// so concurrent scanners do not block on each other.
func (r *Repository) FindUnqueued(ctx context.Context, gatewayID string, dueBefore *time.Time, limit int) ([]*message.Message, error) {
	var models []MessageModel

	query := r.db.WithContext(ctx).
		Where("gateway_id = ? AND queued = ? AND processed_at IS NULL", gatewayID, false)
	if dueBefore != nil {
		query = query.Where("send_time <= ?", *dueBefore)
	}

	err := query.
		Order("created_at ASC").
		Limit(limit).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return toDomainMany(models), nil
}

// Claim flips queued from false to true. Only one caller can win.
func (r *Repository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ? AND queued = ?", id, false).
		Update("queued", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release reverts a claim.
func (r *Repository) Release(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ?", id).
		Update("queued", false).Error
}

// MarkProcessed persists the processed timestamp and clears queued.
func (r *Repository) MarkProcessed(ctx context.Context, m *message.Message) error {
	res := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ?", m.UUID).
		Updates(map[string]interface{}{
			"processed_at": m.ProcessedAt,
			"queued":       false,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: message %s", message.ErrNotFound, m.UUID)
	}
	return nil
}

// SaveResult upserts the result of a stored message.
func (r *Repository) SaveResult(ctx context.Context, id uuid.UUID, res *message.Result) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&MessageModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: result for missing message %s", message.ErrStorage, id)
	}

	model := &ResultModel{
		MessageID:      id,
		ErrorCode:      res.ErrorCode,
		ErrorMessage:   res.ErrorMessage,
		CreditsBalance: res.CreditsBalance,
		CreditsUsed:    res.CreditsUsed,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"error_code", "error_message", "credits_balance", "credits_used", "updated_at"}),
		}).
		Create(model).Error
}

// DeleteProcessed removes processed, unqueued messages of a gateway and
// direction that were processed before cutoff.
func (r *Repository) DeleteProcessed(ctx context.Context, gatewayID string, dir message.Direction, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&MessageModel{}).
			Select("id").
			Where("gateway_id = ? AND direction = ? AND queued = ? AND processed_at < ?", gatewayID, string(dir), false, cutoff)

		if err := tx.Where("message_id IN (?)", expired).Delete(&ResultModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("gateway_id = ? AND direction = ? AND queued = ? AND processed_at < ?", gatewayID, string(dir), false, cutoff).
			Delete(&MessageModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// compile-time interface check
var _ message.Repository = (*Repository)(nil)
