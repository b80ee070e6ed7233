package routing

import (
	"context"
	"strings"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
)

// PrefixProposer proposes every gateway whose configured route prefixes
// match the recipient number. The registry is read on each call.
type PrefixProposer struct {
	registry *gateway.Registry
}

// NewPrefixProposer creates a proposer backed by the gateway registry.
func NewPrefixProposer(registry *gateway.Registry) *PrefixProposer {
	return &PrefixProposer{registry: registry}
}

// Propose implements Proposer.
func (p *PrefixProposer) Propose(_ context.Context, _ *message.Message, recipient string) []Proposal {
	var out []Proposal
	for _, g := range p.registry.All() {
		for _, rt := range g.Routes {
			if strings.HasPrefix(recipient, rt.Prefix) {
				out = append(out, Proposal{GatewayID: g.ID, Priority: rt.Priority})
				break
			}
		}
	}
	return out
}

var _ Proposer = (*PrefixProposer)(nil)
