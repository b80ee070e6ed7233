package config

import (
	"fmt"
	"os"
	"time"

	"github.com/oggyb/sms-framework/internal/activehours"
	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"gopkg.in/yaml.v3"
)

// GatewayFile is the YAML document holding everything that is configured
// per site rather than per environment.
type GatewayFile struct {
	Fallback     string             `yaml:"fallback"`
	Gateways     []GatewayEntry     `yaml:"gateways"`
	ActiveHours  ActiveHoursEntry   `yaml:"active_hours"`
	Verification VerificationConfig `yaml:"verification"`
}

// GatewayEntry configures one gateway.
type GatewayEntry struct {
	ID           string            `yaml:"id"`
	Label        string            `yaml:"label"`
	Plugin       string            `yaml:"plugin"`
	Settings     map[string]string `yaml:"settings"`
	SkipQueue    bool              `yaml:"skip_queue"`
	Retention    *RetentionEntry   `yaml:"retention"`
	ReportsPath  string            `yaml:"reports_path"`
	IncomingPath string            `yaml:"incoming_path"`
	Routes       []RouteEntry      `yaml:"routes"`
}

// RetentionEntry is retention in seconds per direction; -1 keeps forever.
type RetentionEntry struct {
	Incoming int `yaml:"incoming"`
	Outgoing int `yaml:"outgoing"`
}

type RouteEntry struct {
	Prefix   string `yaml:"prefix"`
	Priority int    `yaml:"priority"`
}

type ActiveHoursEntry struct {
	Enabled  bool         `yaml:"enabled"`
	Timezone string       `yaml:"timezone"`
	Ranges   []RangeEntry `yaml:"ranges"`
}

type RangeEntry struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type VerificationConfig struct {
	FloodThreshold int                 `yaml:"flood_threshold"`
	FloodWindow    string              `yaml:"flood_window"`
	Settings       []VerificationEntry `yaml:"settings"`
}

type VerificationEntry struct {
	OwnerType       string `yaml:"owner_type"`
	Bundle          string `yaml:"bundle"`
	MessageTemplate string `yaml:"message_template"`
	VerifiedReply   string `yaml:"verified_reply"`
	Lifetime        string `yaml:"lifetime"`
	PurgePhone      bool   `yaml:"purge_phone"`
	CodeLength      int    `yaml:"code_length"`
}

// LoadGatewayFile reads and parses the gateway file at path.
func LoadGatewayFile(path string) (*GatewayFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gateway file: %w", err)
	}
	return ParseGatewayFile(raw)
}

// ParseGatewayFile parses a gateway file document.
func ParseGatewayFile(raw []byte) (*GatewayFile, error) {
	var f GatewayFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse gateway file: %w", err)
	}
	return &f, nil
}

// Definitions converts the gateway entries. Retention defaults to keeping
// messages forever.
func (f *GatewayFile) Definitions() []gateway.Definition {
	defs := make([]gateway.Definition, 0, len(f.Gateways))
	for _, g := range f.Gateways {
		def := gateway.Definition{
			ID:               g.ID,
			Label:            g.Label,
			Plugin:           g.Plugin,
			Settings:         g.Settings,
			SkipQueue:        g.SkipQueue,
			Retention:        gateway.Retention{Incoming: gateway.RetainForever, Outgoing: gateway.RetainForever},
			ReportsPushPath:  g.ReportsPath,
			IncomingPushPath: g.IncomingPath,
		}
		if def.Label == "" {
			def.Label = g.ID
		}
		if g.Retention != nil {
			def.Retention = gateway.Retention{Incoming: g.Retention.Incoming, Outgoing: g.Retention.Outgoing}
		}
		for _, r := range g.Routes {
			def.Routes = append(def.Routes, gateway.Route{Prefix: r.Prefix, Priority: r.Priority})
		}
		defs = append(defs, def)
	}
	return defs
}

// ActiveHoursRanges converts the configured ranges.
func (f *GatewayFile) ActiveHoursRanges() []activehours.Range {
	out := make([]activehours.Range, 0, len(f.ActiveHours.Ranges))
	for _, r := range f.ActiveHours.Ranges {
		out = append(out, activehours.Range{Start: r.Start, End: r.End})
	}
	return out
}

// ActiveHoursZone returns the zone used for owners without a timezone.
func (f *GatewayFile) ActiveHoursZone() (*time.Location, error) {
	if f.ActiveHours.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(f.ActiveHours.Timezone)
	if err != nil {
		return nil, fmt.Errorf("active hours timezone: %w", err)
	}
	return loc, nil
}

// FloodWindow returns the verification flood-control window, zero when unset.
func (f *GatewayFile) FloodWindow() (time.Duration, error) {
	if f.Verification.FloodWindow == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Verification.FloodWindow)
	if err != nil {
		return 0, fmt.Errorf("verification flood_window: %w", err)
	}
	return d, nil
}

// VerificationSettings converts the verification entries. Lifetime
// defaults to 24h.
func (f *GatewayFile) VerificationSettings() ([]*verification.Settings, error) {
	out := make([]*verification.Settings, 0, len(f.Verification.Settings))
	for _, v := range f.Verification.Settings {
		lifetime := 24 * time.Hour
		if v.Lifetime != "" {
			d, err := time.ParseDuration(v.Lifetime)
			if err != nil {
				return nil, fmt.Errorf("verification %s.%s lifetime: %w", v.OwnerType, v.Bundle, err)
			}
			lifetime = d
		}
		if v.OwnerType == "" || v.Bundle == "" || v.MessageTemplate == "" {
			return nil, fmt.Errorf("verification settings need owner_type, bundle and message_template")
		}
		out = append(out, &verification.Settings{
			OwnerType:       v.OwnerType,
			Bundle:          v.Bundle,
			MessageTemplate: v.MessageTemplate,
			VerifiedReply:   v.VerifiedReply,
			Lifetime:        lifetime,
			PurgePhone:      v.PurgePhone,
			CodeLength:      v.CodeLength,
		})
	}
	return out, nil
}
