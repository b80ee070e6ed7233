package messagegorm

import (
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/domain/owner"
)

// toDomain maps a GORM MessageModel to a domain-level Message.
func toDomain(m *MessageModel) *message.Message {
	d := &message.Message{
		UUID:         m.ID,
		Direction:    message.Direction(m.Direction),
		SenderName:   m.SenderName,
		SenderNumber: m.SenderNumber,
		Recipients:   m.Recipients,
		Body:         m.Body,
		Options:      m.Options,
		Automated:    m.Automated,
		GatewayID:    m.GatewayID,
		Queued:       m.Queued,
		CreatedAt:    m.CreatedAt,
		SendTime:     m.SendTime,
		ProcessedAt:  m.ProcessedAt,
	}
	if d.Options == nil {
		d.Options = map[string]string{}
	}
	d.SenderOwner = toRef(m.SenderOwnerType, m.SenderOwnerID)
	d.RecipientOwner = toRef(m.RecipientOwnerType, m.RecipientOwnerID)
	return d
}

// toDomainMany maps a slice of MessageModel to a slice of domain Messages.
func toDomainMany(models []MessageModel) []*message.Message {
	out := make([]*message.Message, len(models))
	for i := range models {
		out[i] = toDomain(&models[i])
	}
	return out
}

// fromDomain maps a domain-level Message to a GORM MessageModel.
func fromDomain(d *message.Message) *MessageModel {
	m := &MessageModel{
		ID:           d.UUID,
		Direction:    string(d.Direction),
		GatewayID:    d.GatewayID,
		SenderName:   d.SenderName,
		SenderNumber: d.SenderNumber,
		Recipients:   d.Recipients,
		Body:         d.Body,
		Options:      d.Options,
		Automated:    d.Automated,
		Queued:       d.Queued,
		SendTime:     d.SendTime,
		ProcessedAt:  d.ProcessedAt,
		CreatedAt:    d.CreatedAt,
	}
	if d.SenderOwner != nil {
		m.SenderOwnerType, m.SenderOwnerID = d.SenderOwner.Type, d.SenderOwner.ID
	}
	if d.RecipientOwner != nil {
		m.RecipientOwnerType, m.RecipientOwnerID = d.RecipientOwner.Type, d.RecipientOwner.ID
	}
	return m
}

func toRef(ownerType, id string) *owner.Ref {
	if ownerType == "" && id == "" {
		return nil
	}
	return &owner.Ref{Type: ownerType, ID: id}
}

func resultToDomain(r *ResultModel) *message.Result {
	return &message.Result{
		ErrorCode:      r.ErrorCode,
		ErrorMessage:   r.ErrorMessage,
		CreditsBalance: r.CreditsBalance,
		CreditsUsed:    r.CreditsUsed,
	}
}
