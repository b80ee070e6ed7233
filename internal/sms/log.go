package sms

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
)

// LogPlugin writes messages to the log instead of delivering them. It is
// used for development and as a safe site fallback.
type LogPlugin struct {
	credits *float64
}

// NewLogPlugin builds a LogPlugin. The optional "credits" setting is
// reported as the credit balance.
func NewLogPlugin(settings map[string]string) (gateway.Plugin, error) {
	p := &LogPlugin{}
	if v, ok := settings["credits"]; ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("log plugin: invalid credits %q: %w", v, err)
		}
		p.credits = &f
	}
	return p, nil
}

// Capabilities implements gateway.Plugin.
func (p *LogPlugin) Capabilities() gateway.Capabilities {
	return gateway.Capabilities{
		SupportsIncoming:           true,
		SupportsReportsPush:        true,
		SupportsCreditBalanceQuery: p.credits != nil,
	}
}

// Send implements gateway.Plugin.
func (p *LogPlugin) Send(_ context.Context, m *message.Message) (*message.Result, error) {
	log.Printf("[SMS log] To %v: %s", m.Recipients, m.Body)

	now := time.Now().UTC()
	res := &message.Result{CreditsBalance: p.credits}
	for _, rcpt := range m.Recipients {
		res.Reports = append(res.Reports, &message.DeliveryReport{
			MessageID:  uuid.NewString(),
			Recipient:  rcpt,
			Status:     message.StatusQueued,
			StatusTime: now,
		})
	}
	return res, nil
}

// Incoming implements gateway.IncomingHandler.
func (p *LogPlugin) Incoming(_ context.Context, msgs []*message.Message) ([]*message.Message, error) {
	for _, m := range msgs {
		log.Printf("[SMS log] Incoming from %v: %s", m.Recipients, m.Body)
	}
	return msgs, nil
}

// ParseDeliveryReports implements gateway.ReportParser.
func (p *LogPlugin) ParseDeliveryReports(r *http.Request) ([]*message.DeliveryReport, error) {
	return decodeDeliveryReports(r)
}

// ParseIncoming implements gateway.IncomingParser.
func (p *LogPlugin) ParseIncoming(r *http.Request) ([]*message.Message, error) {
	return decodeIncoming(r)
}

// CreditBalance implements gateway.CreditBalancer.
func (p *LogPlugin) CreditBalance(context.Context) (float64, error) {
	if p.credits == nil {
		return 0, fmt.Errorf("log plugin: no credit balance configured")
	}
	return *p.credits, nil
}

var (
	_ gateway.Plugin          = (*LogPlugin)(nil)
	_ gateway.IncomingHandler = (*LogPlugin)(nil)
	_ gateway.ReportParser    = (*LogPlugin)(nil)
	_ gateway.IncomingParser  = (*LogPlugin)(nil)
	_ gateway.CreditBalancer  = (*LogPlugin)(nil)
)
