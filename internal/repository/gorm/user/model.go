package usergorm

import "time"

// UserModel maps to the "users" table.
type UserModel struct {
	ID           string   `gorm:"size:64;primaryKey"`
	Name         string   `gorm:"size:255;not null"`
	Timezone     string   `gorm:"size:64"`
	PhoneNumbers []string `gorm:"serializer:json;type:jsonb"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the default table name used by GORM.
func (UserModel) TableName() string {
	return "users"
}
