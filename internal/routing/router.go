// Package routing resolves which gateway should carry a message to each of
// its recipients.
package routing

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
)

// Proposal is a vote for a gateway to carry a message to one recipient.
type Proposal struct {
	GatewayID string
	Priority  int
}

// Proposer suggests gateways for a recipient. Returning nothing abstains.
type Proposer interface {
	Propose(ctx context.Context, m *message.Message, recipient string) []Proposal
}

// ProposerFunc adapts a function to the Proposer interface.
type ProposerFunc func(ctx context.Context, m *message.Message, recipient string) []Proposal

// Propose implements Proposer.
func (f ProposerFunc) Propose(ctx context.Context, m *message.Message, recipient string) []Proposal {
	return f(ctx, m, recipient)
}

// Router picks gateways from proposals, falling back to the site gateway.
type Router struct {
	registry  *gateway.Registry
	proposers []Proposer
}

// New creates a router. Proposers are consulted in the given order, which
// is also the tie-break order for equal priorities.
func New(registry *gateway.Registry, proposers ...Proposer) *Router {
	return &Router{registry: registry, proposers: proposers}
}

// AddProposer appends a proposer.
func (r *Router) AddProposer(p Proposer) {
	r.proposers = append(r.proposers, p)
}

// Resolve returns the gateway for a single recipient of m.
func (r *Router) Resolve(ctx context.Context, m *message.Message, recipient string) (*gateway.Gateway, error) {
	var proposals []Proposal
	for _, p := range r.proposers {
		proposals = append(proposals, p.Propose(ctx, m, recipient)...)
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].Priority > proposals[j].Priority
	})

	for _, p := range proposals {
		g, err := r.registry.Get(p.GatewayID)
		if err != nil {
			log.Printf("[Router] Ignoring proposal for unknown gateway %q", p.GatewayID)
			continue
		}
		return g, nil
	}

	if g, ok := r.registry.Fallback(); ok {
		return g, nil
	}
	return nil, fmt.Errorf("%w: no gateway for recipient %s", message.ErrRecipientRoute, recipient)
}

// Split assigns a gateway to every recipient of m and returns one message
// per gateway, in order of first appearance. A message that already names
// a gateway is returned untouched. The first group keeps m's UUID; every
// other group is a separate message with a fresh UUID.
func (r *Router) Split(ctx context.Context, m *message.Message) ([]*message.Message, error) {
	if m.GatewayID != "" {
		return []*message.Message{m}, nil
	}
	if len(m.Recipients) == 0 {
		return nil, fmt.Errorf("%w: message %s has no recipients", message.ErrRecipientRoute, m.UUID)
	}

	groups := make(map[string][]string)
	var order []string
	for _, rcpt := range m.Recipients {
		g, err := r.Resolve(ctx, m, rcpt)
		if err != nil {
			return nil, err
		}
		if _, seen := groups[g.ID]; !seen {
			order = append(order, g.ID)
		}
		groups[g.ID] = append(groups[g.ID], rcpt)
	}

	if len(order) == 1 {
		m.GatewayID = order[0]
		return []*message.Message{m}, nil
	}

	out := make([]*message.Message, 0, len(order))
	for i, id := range order {
		c := m.Clone()
		if i > 0 {
			c.UUID = uuid.New()
		}
		c.GatewayID = id
		c.Recipients = groups[id]
		out = append(out, c)
	}
	return out, nil
}
