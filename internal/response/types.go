package response

import (
	"time"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/domain/user"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"github.com/oggyb/sms-framework/internal/scheduler"
)

type WelcomePayload struct {
	Message string `json:"message"`
}

type HealthPayload struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type WelcomeResponse struct {
	Success   bool           `json:"success"`
	Data      WelcomePayload `json:"data"`
	Timestamp string         `json:"timestamp"`
}

type HealthResponse struct {
	Success   bool          `json:"success"`
	Data      HealthPayload `json:"data"`
	Timestamp string        `json:"timestamp"`
}

type SchedulerControlPayload struct {
	Message string `json:"message"`
}

type SchedulerControlResponse struct {
	Success   bool                    `json:"success"`
	Data      SchedulerControlPayload `json:"data"`
	Timestamp string                  `json:"timestamp"`
}

// SchedulerStatusPayload mirrors scheduler.Status. LastRun is omitted
// until the first tick completes.
type SchedulerStatusPayload struct {
	Running   bool       `json:"running"`
	InTick    bool       `json:"inTick"`
	Ticks     int64      `json:"ticks"`
	Failures  int64      `json:"failures"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

type SchedulerStatusResponse struct {
	Success   bool                   `json:"success"`
	Data      SchedulerStatusPayload `json:"data"`
	Timestamp string                 `json:"timestamp"`
}

func FromSchedulerStatus(st scheduler.Status) SchedulerStatusPayload {
	p := SchedulerStatusPayload{
		Running:   st.Running,
		InTick:    st.InTick,
		Ticks:     st.Ticks,
		Failures:  st.Failures,
		LastError: st.LastError,
	}
	if !st.LastRun.IsZero() {
		t := st.LastRun.UTC()
		p.LastRun = &t
	}
	return p
}

// RevisionDTO is one entry of a delivery report's history.
type RevisionDTO struct {
	ID            int64     `json:"id"`
	Status        string    `json:"status"`
	StatusMessage string    `json:"statusMessage,omitempty"`
	StatusTime    time.Time `json:"statusTime"`
}

// ReportDTO is the public view of a per-recipient delivery report.
type ReportDTO struct {
	MessageID     string        `json:"messageId"`
	Recipient     string        `json:"recipient"`
	Gateway       string        `json:"gateway"`
	Status        string        `json:"status"`
	StatusMessage string        `json:"statusMessage,omitempty"`
	StatusTime    time.Time     `json:"statusTime"`
	Revisions     []RevisionDTO `json:"revisions,omitempty"`
}

// ResultDTO is the public view of a gateway result.
type ResultDTO struct {
	ErrorCode      string      `json:"errorCode,omitempty"`
	ErrorMessage   string      `json:"errorMessage,omitempty"`
	CreditsBalance *float64    `json:"creditsBalance,omitempty"`
	CreditsUsed    *float64    `json:"creditsUsed,omitempty"`
	Reports        []ReportDTO `json:"reports"`
}

// MessageDTO is a public-facing representation of a message
// used in API responses. It decouples the wire format from
// the domain entity and plays nicely with Swagger.
type MessageDTO struct {
	ID           string            `json:"id"`
	Direction    string            `json:"direction"`
	Gateway      string            `json:"gateway"`
	SenderName   string            `json:"senderName,omitempty"`
	SenderNumber string            `json:"senderNumber,omitempty"`
	Recipients   []string          `json:"recipients"`
	Body         string            `json:"body"`
	Options      map[string]string `json:"options,omitempty"`
	Automated    bool              `json:"automated"`
	Queued       bool              `json:"queued"`
	CreatedAt    time.Time         `json:"createdAt"`
	SendTime     time.Time         `json:"sendTime"`
	ProcessedAt  *time.Time        `json:"processedAt,omitempty"`
	Result       *ResultDTO        `json:"result,omitempty"`
}

type MessageResponse struct {
	Success   bool       `json:"success"`
	Data      MessageDTO `json:"data"`
	Timestamp string     `json:"timestamp"`
}

type MessagesResponse struct {
	Success   bool         `json:"success"`
	Data      []MessageDTO `json:"data"`
	Timestamp string       `json:"timestamp"`
}

type ReportsResponse struct {
	Success   bool        `json:"success"`
	Data      []ReportDTO `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// ReportsAcceptedPayload acknowledges a delivery report push.
type ReportsAcceptedPayload struct {
	Applied int `json:"applied"`
}

type ReportsAcceptedResponse struct {
	Success   bool                   `json:"success"`
	Data      ReportsAcceptedPayload `json:"data"`
	Timestamp string                 `json:"timestamp"`
}

// GatewayDTO describes a configured gateway and what its plugin can do.
type GatewayDTO struct {
	ID                    string `json:"id"`
	Label                 string `json:"label"`
	Plugin                string `json:"plugin"`
	SkipQueue             bool   `json:"skipQueue"`
	RetentionIncoming     int    `json:"retentionIncoming"`
	RetentionOutgoing     int    `json:"retentionOutgoing"`
	SupportsIncoming      bool   `json:"supportsIncoming"`
	SupportsReportsPush   bool   `json:"supportsReportsPush"`
	ScheduleAware         bool   `json:"scheduleAware"`
	MaxOutgoingRecipients int    `json:"maxOutgoingRecipients"`
	CreditBalance         bool   `json:"creditBalance"`
}

type GatewaysResponse struct {
	Success   bool         `json:"success"`
	Data      []GatewayDTO `json:"data"`
	Timestamp string       `json:"timestamp"`
}

type BalancePayload struct {
	Gateway string  `json:"gateway"`
	Balance float64 `json:"balance"`
}

type BalanceResponse struct {
	Success   bool           `json:"success"`
	Data      BalancePayload `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// VerificationDTO never exposes the code.
type VerificationDTO struct {
	ID          uint      `json:"id"`
	OwnerType   string    `json:"ownerType"`
	OwnerID     string    `json:"ownerId"`
	PhoneNumber string    `json:"phoneNumber"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"createdAt"`
}

type VerificationResponse struct {
	Success   bool            `json:"success"`
	Data      VerificationDTO `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type VerificationsResponse struct {
	Success   bool              `json:"success"`
	Data      []VerificationDTO `json:"data"`
	Timestamp string            `json:"timestamp"`
}

type UserDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Timezone     string    `json:"timezone,omitempty"`
	PhoneNumbers []string  `json:"phoneNumbers"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UserResponse struct {
	Success   bool    `json:"success"`
	Data      UserDTO `json:"data"`
	Timestamp string  `json:"timestamp"`
}

// WebhookResponse is what a webhook SMS provider answers per recipient.
type WebhookResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// FromDomainMessage converts a domain message into its DTO.
func FromDomainMessage(m *message.Message) MessageDTO {
	dto := MessageDTO{
		ID:           m.UUID.String(),
		Direction:    string(m.Direction),
		Gateway:      m.GatewayID,
		SenderName:   m.SenderName,
		SenderNumber: m.SenderNumber,
		Recipients:   m.Recipients,
		Body:         m.Body,
		Options:      m.Options,
		Automated:    m.Automated,
		Queued:       m.Queued,
		CreatedAt:    m.CreatedAt,
		SendTime:     m.SendTime,
		ProcessedAt:  m.ProcessedAt,
	}
	if m.Result != nil {
		dto.Result = &ResultDTO{
			ErrorCode:      m.Result.ErrorCode,
			ErrorMessage:   m.Result.ErrorMessage,
			CreditsBalance: m.Result.CreditsBalance,
			CreditsUsed:    m.Result.CreditsUsed,
			Reports:        FromDomainReports(m.Result.Reports),
		}
	}
	return dto
}

// FromDomainMessages converts domain messages into DTOs
// for use in HTTP responses.
func FromDomainMessages(msgs []*message.Message) []MessageDTO {
	out := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = FromDomainMessage(m)
	}
	return out
}

func FromDomainReports(reports []*message.DeliveryReport) []ReportDTO {
	out := make([]ReportDTO, len(reports))
	for i, r := range reports {
		out[i] = ReportDTO{
			MessageID:     r.MessageID,
			Recipient:     r.Recipient,
			Gateway:       r.GatewayID,
			Status:        string(r.Status),
			StatusMessage: r.StatusMessage,
			StatusTime:    r.StatusTime,
		}
		for _, rev := range r.Revisions {
			out[i].Revisions = append(out[i].Revisions, RevisionDTO{
				ID:            rev.ID,
				Status:        string(rev.Status),
				StatusMessage: rev.StatusMessage,
				StatusTime:    rev.StatusTime,
			})
		}
	}
	return out
}

func FromDomainGateways(gateways []*gateway.Gateway) []GatewayDTO {
	out := make([]GatewayDTO, len(gateways))
	for i, g := range gateways {
		caps := g.Capabilities()
		out[i] = GatewayDTO{
			ID:                    g.ID,
			Label:                 g.Label,
			Plugin:                g.Definition.Plugin,
			SkipQueue:             g.SkipQueue,
			RetentionIncoming:     g.Retention.Incoming,
			RetentionOutgoing:     g.Retention.Outgoing,
			SupportsIncoming:      caps.SupportsIncoming,
			SupportsReportsPush:   caps.SupportsReportsPush,
			ScheduleAware:         caps.ScheduleAware,
			MaxOutgoingRecipients: caps.MaxOutgoingRecipients,
			CreditBalance:         caps.SupportsCreditBalanceQuery,
		}
	}
	return out
}

func FromDomainVerification(v *verification.Verification) VerificationDTO {
	return VerificationDTO{
		ID:          v.ID,
		OwnerType:   v.Owner.Type,
		OwnerID:     v.Owner.ID,
		PhoneNumber: v.PhoneNumber,
		Verified:    v.Status,
		CreatedAt:   v.CreatedAt,
	}
}

func FromDomainVerifications(vs []*verification.Verification) []VerificationDTO {
	out := make([]VerificationDTO, 0, len(vs))
	for _, v := range vs {
		out = append(out, FromDomainVerification(v))
	}
	return out
}

func FromDomainUser(u *user.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Timezone:     u.Timezone,
		PhoneNumbers: u.PhoneNumbers,
		UpdatedAt:    u.UpdatedAt,
	}
}
