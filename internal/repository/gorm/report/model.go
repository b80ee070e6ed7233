package reportgorm

import (
	"time"

	"github.com/google/uuid"
)

// RevisionModel is one row of the append-only delivery report log. The
// auto-increment id orders revisions by the time they were applied.
type RevisionModel struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"`
	MessageID     string     `gorm:"size:255;not null;index:idx_report_key,priority:1"`
	Recipient     string     `gorm:"size:64;not null;index:idx_report_key,priority:2"`
	GatewayID     string     `gorm:"size:64;not null"`
	MessageUUID   *uuid.UUID `gorm:"type:uuid;index"`
	Status        string     `gorm:"size:32;not null"`
	StatusMessage string     `gorm:"type:text"`
	StatusTime    time.Time  `gorm:"not null"`
	CreatedAt     time.Time
}

// TableName overrides the default table name used by GORM.
func (RevisionModel) TableName() string {
	return "delivery_report_revisions"
}
