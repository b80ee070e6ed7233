package messagegorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageModel is the GORM persistence model for messages.
// It maps directly to the "messages" table in Postgres.
type MessageModel struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Direction    string            `gorm:"size:10;not null;index:idx_messages_gc,priority:2"`
	GatewayID    string            `gorm:"size:64;not null;index:idx_messages_scan,priority:1;index:idx_messages_gc,priority:1"`
	SenderName   string            `gorm:"size:255"`
	SenderNumber string            `gorm:"size:32"`
	Recipients   []string          `gorm:"serializer:json;type:jsonb;not null"`
	Body         string            `gorm:"type:text;not null"`
	Options      map[string]string `gorm:"serializer:json;type:jsonb"`
	Automated    bool              `gorm:"not null"`

	SenderOwnerType    string `gorm:"size:64"`
	SenderOwnerID      string `gorm:"size:64"`
	RecipientOwnerType string `gorm:"size:64"`
	RecipientOwnerID   string `gorm:"size:64"`

	Queued      bool       `gorm:"not null;index:idx_messages_scan,priority:2"`
	SendTime    time.Time  `gorm:"not null;index"`
	ProcessedAt *time.Time `gorm:"index:idx_messages_gc,priority:3"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time
}

// TableName overrides the default table name used by GORM.
func (MessageModel) TableName() string {
	return "messages"
}

// BeforeCreate ensures a UUID is set before inserting a new record.
func (m *MessageModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ResultModel stores the summary a gateway returned for a message. Per
// recipient reports live in the delivery report revision log.
type ResultModel struct {
	MessageID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	ErrorCode      string    `gorm:"size:64"`
	ErrorMessage   string    `gorm:"type:text"`
	CreditsBalance *float64
	CreditsUsed    *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ResultModel) TableName() string {
	return "message_results"
}
