package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
)

// Splitter assigns gateways to messages, possibly splitting them.
type Splitter interface {
	Split(ctx context.Context, m *message.Message) ([]*message.Message, error)
}

// Delayer moves the send time of messages that would arrive out of hours.
type Delayer interface {
	DelayMessage(ctx context.Context, m *message.Message) error
}

// RecipientsHook rejects outgoing messages without recipients.
func RecipientsHook() Hook {
	return Hook{
		Stage: StagePreProcess,
		Name:  "recipients",
		Handle: func(_ context.Context, msgs []*message.Message) ([]*message.Message, error) {
			for _, m := range msgs {
				if m.Direction == message.DirectionOutgoing && len(m.Recipients) == 0 {
					return nil, fmt.Errorf("%w: message %s has no recipients", message.ErrRecipientRoute, m.UUID)
				}
			}
			return msgs, nil
		},
	}
}

// RoutingHook resolves gateways for outgoing messages that have none.
func RoutingHook(s Splitter) Hook {
	return Hook{
		Stage: StagePreProcess,
		Name:  "routing",
		Handle: func(ctx context.Context, msgs []*message.Message) ([]*message.Message, error) {
			out := make([]*message.Message, 0, len(msgs))
			for _, m := range msgs {
				if m.Direction != message.DirectionOutgoing {
					out = append(out, m)
					continue
				}
				routed, err := s.Split(ctx, m)
				if err != nil {
					return nil, err
				}
				out = append(out, routed...)
			}
			return out, nil
		},
	}
}

// ActiveHoursHook delays queued automated messages to the recipient's next
// active window. Failures are logged and leave the send time alone.
func ActiveHoursHook(d Delayer) Hook {
	return Hook{
		Stage: StageQueuePreProcess,
		Name:  "active-hours",
		Handle: func(ctx context.Context, msgs []*message.Message) ([]*message.Message, error) {
			for _, m := range msgs {
				if err := d.DelayMessage(ctx, m); err != nil {
					log.Printf("[Pipeline] Active hours check failed for %s: %v", m.UUID, err)
				}
			}
			return msgs, nil
		},
	}
}

// ChunkHook splits outgoing messages by their gateway's recipient limit.
func ChunkHook(gateways *gateway.Registry) Hook {
	return Hook{
		Stage: StageOutgoingPreProcess,
		Name:  "chunk",
		Handle: func(_ context.Context, msgs []*message.Message) ([]*message.Message, error) {
			out := make([]*message.Message, 0, len(msgs))
			for _, m := range msgs {
				if m.GatewayID == "" {
					out = append(out, m)
					continue
				}
				g, err := gateways.Get(m.GatewayID)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", message.ErrRecipientRoute, err)
				}
				out = append(out, message.ChunkByRecipients(m, g.Capabilities().MaxOutgoingRecipients)...)
			}
			return out, nil
		},
	}
}

// DefaultHooks returns the built-in hooks in their canonical order.
func DefaultHooks(router Splitter, gateways *gateway.Registry, delayer Delayer) []Hook {
	hooks := []Hook{
		RecipientsHook(),
		RoutingHook(router),
	}
	if delayer != nil {
		hooks = append(hooks, ActiveHoursHook(delayer))
	}
	return append(hooks, ChunkHook(gateways))
}
