package request

// SchedulerRequest represents the JSON body for scheduler control.
type SchedulerRequest struct {
	// Action controls the scheduler. Allowed values:
	// - "start": start processing ticks
	// - "stop":  stop processing ticks
	// - "run":   run one tick right away
	Action string `json:"action"`
}

// WebhookRequest is the body posted to a webhook SMS provider per recipient.
type WebhookRequest struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

// QueueMessageRequest is the body of POST /messages.
type QueueMessageRequest struct {
	Recipients   []string          `json:"recipients"`
	Body         string            `json:"body"`
	SenderName   string            `json:"senderName,omitempty"`
	SenderNumber string            `json:"senderNumber,omitempty"`
	Gateway      string            `json:"gateway,omitempty"`
	Automated    *bool             `json:"automated,omitempty"`
	SendTime     string            `json:"sendTime,omitempty"`
	Options      map[string]string `json:"options,omitempty"`
	// RecipientUser optionally names the user the message is addressed to.
	RecipientUser string `json:"recipientUser,omitempty"`
}

// DeliveryReportPush is the JSON body gateways push delivery reports with.
type DeliveryReportPush struct {
	Reports []DeliveryReportItem `json:"reports"`
}

// DeliveryReportItem is a single pushed report.
type DeliveryReportItem struct {
	MessageID     string `json:"message_id"`
	Recipient     string `json:"recipient"`
	Status        string `json:"status"`
	StatusTime    int64  `json:"status_time"`
	StatusMessage string `json:"status_message"`
}

// IncomingPush is the JSON body gateways push incoming messages with.
type IncomingPush struct {
	Messages []IncomingItem `json:"messages"`
}

// IncomingItem is a single pushed incoming message.
type IncomingItem struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// NewVerificationRequest is the body of POST /verifications.
type NewVerificationRequest struct {
	OwnerType   string `json:"ownerType"`
	OwnerID     string `json:"ownerId"`
	PhoneNumber string `json:"phoneNumber"`
}

// VerifyRequest is the body of POST /verifications/verify.
type VerifyRequest struct {
	Code string `json:"code"`
}

// UpsertUserRequest is the body of PUT /users/{id}.
type UpsertUserRequest struct {
	Name         string   `json:"name"`
	Timezone     string   `json:"timezone"`
	PhoneNumbers []string `json:"phoneNumbers"`
}
