// Package gateway defines SMS gateways, the plugin contract they are bound
// to, and the registry that resolves them by id.
package gateway

import (
	"context"
	"net/http"

	"github.com/oggyb/sms-framework/internal/domain/message"
)

// RetainForever keeps processed messages indefinitely.
const RetainForever = -1

// Capabilities are the static features a plugin supports.
type Capabilities struct {
	SupportsIncoming           bool
	SupportsReportsPush        bool
	SupportsReportsPull        bool
	ScheduleAware              bool
	MaxOutgoingRecipients      int
	SupportsCreditBalanceQuery bool
}

// Plugin is the transport a gateway is bound to.
type Plugin interface {
	Capabilities() Capabilities

	// Send delivers an outgoing message and reports what happened per
	// recipient. A non-nil error means the call itself failed.
	Send(ctx context.Context, m *message.Message) (*message.Result, error)
}

// ReportParser is implemented by plugins that accept pushed delivery reports.
type ReportParser interface {
	ParseDeliveryReports(r *http.Request) ([]*message.DeliveryReport, error)
}

// IncomingParser turns a pushed HTTP request into incoming messages.
type IncomingParser interface {
	ParseIncoming(r *http.Request) ([]*message.Message, error)
}

// IncomingHandler is the batch-level callback invoked once per incoming call.
type IncomingHandler interface {
	Incoming(ctx context.Context, msgs []*message.Message) ([]*message.Message, error)
}

// CreditBalancer is implemented by plugins that can report remaining credit.
type CreditBalancer interface {
	CreditBalance(ctx context.Context) (float64, error)
}

// HealthChecker is implemented by plugins that can check their upstream.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Factory builds a plugin instance from gateway settings.
type Factory func(settings map[string]string) (Plugin, error)

// Retention is how long processed messages are kept, in seconds, per
// direction. RetainForever disables garbage collection; 0 deletes the
// message right after processing.
type Retention struct {
	Incoming int
	Outgoing int
}

// Route is a number prefix the gateway volunteers for, with a priority.
type Route struct {
	Prefix   string
	Priority int
}

// Definition is the configuration a gateway is built from.
type Definition struct {
	ID               string
	Label            string
	Plugin           string
	Settings         map[string]string
	SkipQueue        bool
	Retention        Retention
	ReportsPushPath  string
	IncomingPushPath string
	Routes           []Route
}

// Gateway is a configured, plugin-bound endpoint.
type Gateway struct {
	Definition
	plugin Plugin
}

// New binds a definition to an already constructed plugin.
func New(def Definition, p Plugin) *Gateway {
	return &Gateway{Definition: def, plugin: p}
}

// Plugin returns the bound transport.
func (g *Gateway) Plugin() Plugin {
	return g.plugin
}

// Capabilities returns the bound plugin's capabilities.
func (g *Gateway) Capabilities() Capabilities {
	return g.plugin.Capabilities()
}

// RetentionFor returns the retention in seconds for a direction.
func (g *Gateway) RetentionFor(dir message.Direction) int {
	if dir == message.DirectionIncoming {
		return g.Retention.Incoming
	}
	return g.Retention.Outgoing
}
