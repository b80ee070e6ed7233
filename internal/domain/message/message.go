// Package message holds the domain model and invariants for SMS messages.
package message

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/domain/owner"
)

const (
	// MaxBodyLength is the maximum allowed length for a message body.
	// Longer bodies are split into segments by the carrier, not by us.
	MaxBodyLength = 1600

	// OptionSkipPreprocess marks a message that already went through
	// PRE_PROCESS when it was queued.
	OptionSkipPreprocess = "_skip_preprocess"
)

// Direction of a message relative to the site.
type Direction string

const (
	// DirectionUnset is the zero value; queue/send/incoming reject it.
	DirectionUnset    Direction = ""
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionOutgoing || d == DirectionIncoming
}

// Message is the core domain value moving through the pipeline.
type Message struct {
	UUID         uuid.UUID
	Direction    Direction
	SenderName   string
	SenderNumber string
	Recipients   []string
	Body         string
	Options      map[string]string
	Automated    bool
	GatewayID    string

	// SenderOwner and RecipientOwner optionally reference the entities on
	// each side of the conversation.
	SenderOwner    *owner.Ref
	RecipientOwner *owner.Ref

	Queued      bool
	CreatedAt   time.Time
	SendTime    time.Time
	ProcessedAt *time.Time

	Result *Result
}

// New constructs an automated message with a fresh UUID. Direction is left
// unset; the caller decides it.
func New(body string, recipients ...string) *Message {
	now := time.Now()
	m := &Message{
		UUID:      uuid.New(),
		Body:      body,
		Options:   map[string]string{},
		Automated: true,
		CreatedAt: now,
		SendTime:  now,
	}
	m.AddRecipients(recipients...)
	return m
}

// AddRecipients appends recipients, ignoring blanks and duplicates while
// keeping first-seen order.
func (m *Message) AddRecipients(recipients ...string) {
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(m.Recipients, r) {
			continue
		}
		m.Recipients = append(m.Recipients, r)
	}
}

// RemoveRecipient drops a recipient if present.
func (m *Message) RemoveRecipient(recipient string) {
	m.Recipients = slices.DeleteFunc(m.Recipients, func(r string) bool { return r == recipient })
}

// Option returns the option value for key, or "".
func (m *Message) Option(key string) string {
	if m.Options == nil {
		return ""
	}
	return m.Options[key]
}

// SetOption stores an option value.
func (m *Message) SetOption(key, value string) {
	if m.Options == nil {
		m.Options = map[string]string{}
	}
	m.Options[key] = value
}

// SkipPreprocess reports whether PRE_PROCESS already ran for this message.
func (m *Message) SkipPreprocess() bool {
	return m.Option(OptionSkipPreprocess) == "1"
}

// Clone returns a deep copy of m. The result is copied by pointer; results
// are immutable once attached.
func (m *Message) Clone() *Message {
	c := *m
	c.Recipients = slices.Clone(m.Recipients)
	c.Options = maps.Clone(m.Options)
	if m.SenderOwner != nil {
		ref := *m.SenderOwner
		c.SenderOwner = &ref
	}
	if m.RecipientOwner != nil {
		ref := *m.RecipientOwner
		c.RecipientOwner = &ref
	}
	if m.ProcessedAt != nil {
		t := *m.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

// Validate enforces structural rules before a message may be persisted or
// handed to a gateway.
func (m *Message) Validate() error {
	if !m.Direction.Valid() {
		return ErrDirection
	}
	if len(m.Recipients) == 0 {
		return fmt.Errorf("%w: message has no recipients", ErrRecipientRoute)
	}
	body := strings.TrimSpace(m.Body)
	if body == "" {
		return fmt.Errorf("%w: message body is empty", ErrValidation)
	}
	if len(body) > MaxBodyLength {
		return fmt.Errorf("%w: message body exceeds %d characters", ErrValidation, MaxBodyLength)
	}
	return nil
}

// MarkProcessed stamps the processed time and releases the queue claim.
func (m *Message) MarkProcessed(at time.Time) {
	m.ProcessedAt = &at
	m.Queued = false
}
