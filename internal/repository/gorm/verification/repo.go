package verificationgorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oggyb/sms-framework/internal/db"
	"github.com/oggyb/sms-framework/internal/domain/owner"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"gorm.io/gorm"
)

// Repository is a GORM-backed implementation of verification.Repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a verification repository using the given DB adapter.
func NewRepository(d db.DB) *Repository {
	return &Repository{db: d.Conn().(*gorm.DB)}
}

func toDomain(m *VerificationModel) *verification.Verification {
	return &verification.Verification{
		ID:          m.ID,
		Owner:       owner.Ref{Type: m.OwnerType, ID: m.OwnerID},
		PhoneNumber: m.PhoneNumber,
		Code:        m.Code,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
	}
}

func toDomainMany(models []VerificationModel) []*verification.Verification {
	out := make([]*verification.Verification, len(models))
	for i := range models {
		out[i] = toDomain(&models[i])
	}
	return out
}

// Create inserts a record and sets its id.
func (r *Repository) Create(ctx context.Context, v *verification.Verification) error {
	model := &VerificationModel{
		OwnerType:   v.Owner.Type,
		OwnerID:     v.Owner.ID,
		PhoneNumber: v.PhoneNumber,
		Code:        v.Code,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	v.ID = model.ID
	return nil
}

// FindUnverifiedByCode returns the unverified record holding code.
func (r *Repository) FindUnverifiedByCode(ctx context.Context, code string) (*verification.Verification, error) {
	var model VerificationModel
	err := r.db.WithContext(ctx).
		Where("code = ? AND status = ?", code, false).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, verification.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&model), nil
}

// FindByOwner returns every record of an owner.
func (r *Repository) FindByOwner(ctx context.Context, ref owner.Ref) ([]*verification.Verification, error) {
	var models []VerificationModel
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ref.Type, ref.ID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainMany(models), nil
}

// FindByPhone returns the records for a phone number, optionally filtered by status.
func (r *Repository) FindByPhone(ctx context.Context, phone string, status *bool) ([]*verification.Verification, error) {
	var models []VerificationModel
	query := r.db.WithContext(ctx).Where("phone_number = ?", phone)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainMany(models), nil
}

// FindUnverifiedCreatedBefore returns unverified records of ownerType
// created before cutoff.
func (r *Repository) FindUnverifiedCreatedBefore(ctx context.Context, ownerType string, cutoff time.Time) ([]*verification.Verification, error) {
	var models []VerificationModel
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND status = ? AND created_at < ?", ownerType, false, cutoff).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainMany(models), nil
}

// Update persists the code and status of a record.
func (r *Repository) Update(ctx context.Context, v *verification.Verification) error {
	res := r.db.WithContext(ctx).
		Model(&VerificationModel{}).
		Where("id = ?", v.ID).
		Updates(map[string]interface{}{
			"code":   v.Code,
			"status": v.Status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", verification.ErrNotFound, v.ID)
	}
	return nil
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&VerificationModel{}).Error
}

var _ verification.Repository = (*Repository)(nil)
