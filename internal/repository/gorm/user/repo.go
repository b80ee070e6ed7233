package usergorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/oggyb/sms-framework/internal/db"
	"github.com/oggyb/sms-framework/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is a GORM-backed implementation of user.Repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a user repository using the given DB adapter.
func NewRepository(d db.DB) *Repository {
	return &Repository{db: d.Conn().(*gorm.DB)}
}

// Get loads a user by id.
func (r *Repository) Get(ctx context.Context, id string) (*user.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", user.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user.User{
		ID:           model.ID,
		Name:         model.Name,
		Timezone:     model.Timezone,
		PhoneNumbers: model.PhoneNumbers,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}, nil
}

// Save inserts the user or updates it when the id already exists.
func (r *Repository) Save(ctx context.Context, u *user.User) error {
	model := &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Timezone:     u.Timezone,
		PhoneNumbers: u.PhoneNumbers,
		CreatedAt:    u.CreatedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "timezone", "phone_numbers", "updated_at"}),
		}).
		Create(model).Error
}

var _ user.Repository = (*Repository)(nil)
