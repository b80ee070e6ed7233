// Package sms contains the gateway plugins shipped with the framework and
// registers them with a gateway registry.
package sms

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/request"
)

const (
	// PluginLog identifies the logging plugin.
	PluginLog = "log"
	// PluginWebhook identifies the webhook HTTP plugin.
	PluginWebhook = "webhook"
)

// RegisterPlugins makes the built-in plugins available to reg.
func RegisterPlugins(reg *gateway.Registry) {
	reg.RegisterPlugin(PluginLog, NewLogPlugin)
	reg.RegisterPlugin(PluginWebhook, NewWebhookPlugin)
}

// decodeDeliveryReports parses the standard delivery report push body.
func decodeDeliveryReports(r *http.Request) ([]*message.DeliveryReport, error) {
	var body request.DeliveryReportPush
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode delivery reports: %w", err)
	}

	out := make([]*message.DeliveryReport, 0, len(body.Reports))
	for i, item := range body.Reports {
		if item.MessageID == "" || item.Recipient == "" {
			return nil, fmt.Errorf("report %d: message_id and recipient are required", i)
		}
		status, err := message.ParseStatus(item.Status)
		if err != nil {
			return nil, fmt.Errorf("report %d: %w", i, err)
		}
		out = append(out, &message.DeliveryReport{
			MessageID:     item.MessageID,
			Recipient:     item.Recipient,
			Status:        status,
			StatusMessage: item.StatusMessage,
			StatusTime:    time.Unix(item.StatusTime, 0).UTC(),
		})
	}
	return out, nil
}

// decodeIncoming parses the standard incoming push body into incoming
// messages, each carrying a delivered report per recipient.
func decodeIncoming(r *http.Request) ([]*message.Message, error) {
	var body request.IncomingPush
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode incoming messages: %w", err)
	}

	now := time.Now().UTC()
	out := make([]*message.Message, 0, len(body.Messages))
	for _, item := range body.Messages {
		m := message.New(item.Message, item.Recipients...)
		m.Direction = message.DirectionIncoming
		m.Automated = false
		m.Result = message.DeliveredResult(m, now)
		out = append(out, m)
	}
	return out, nil
}
