package verificationgorm

import "time"

// VerificationModel maps to the "phone_verifications" table. There is at
// most one record per (owner, phone number).
type VerificationModel struct {
	ID          uint      `gorm:"primaryKey"`
	OwnerType   string    `gorm:"size:64;not null;uniqueIndex:idx_verification_owner_phone,priority:1"`
	OwnerID     string    `gorm:"size:64;not null;uniqueIndex:idx_verification_owner_phone,priority:2"`
	PhoneNumber string    `gorm:"size:32;not null;uniqueIndex:idx_verification_owner_phone,priority:3;index"`
	Code        string    `gorm:"size:32;index"`
	Status      bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName overrides the default table name used by GORM.
func (VerificationModel) TableName() string {
	return "phone_verifications"
}
