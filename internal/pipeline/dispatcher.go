package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
)

// Store persists messages waiting for the queue processor.
type Store interface {
	Save(ctx context.Context, m *message.Message) error
}

// Finalizer is told about messages that were sent or received directly by
// Queue because their gateway skips the queue. It owns result persistence
// and retention.
type Finalizer interface {
	Finalize(ctx context.Context, msgs []*message.Message) error
}

// Dispatcher runs the queue, send and incoming flows. Hooks run in
// registration order within a stage; each call processes its messages one
// at a time, in order.
type Dispatcher struct {
	gateways *gateway.Registry
	store    Store

	mu        sync.RWMutex
	hooks     map[Stage][]Hook
	finalizer Finalizer
}

// New creates a dispatcher with no hooks.
func New(gateways *gateway.Registry, store Store) *Dispatcher {
	return &Dispatcher{
		gateways: gateways,
		store:    store,
		hooks:    make(map[Stage][]Hook),
	}
}

// Use appends hooks to their stages.
func (d *Dispatcher) Use(hooks ...Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range hooks {
		d.hooks[h.Stage] = append(d.hooks[h.Stage], h)
	}
}

// SetFinalizer registers the component that persists directly dispatched
// messages.
func (d *Dispatcher) SetFinalizer(f Finalizer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finalizer = f
}

// Hooks returns the hook names registered for a stage, in order.
func (d *Dispatcher) Hooks(stage Stage) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.hooks[stage]))
	for _, h := range d.hooks[stage] {
		names = append(names, h.Name)
	}
	return names
}

func (d *Dispatcher) dispatch(ctx context.Context, stage Stage, msgs []*message.Message) ([]*message.Message, error) {
	d.mu.RLock()
	hooks := append([]Hook(nil), d.hooks[stage]...)
	d.mu.RUnlock()

	for _, h := range hooks {
		out, err := h.Handle(ctx, msgs)
		if err != nil {
			return nil, fmt.Errorf("%s hook %q: %w", stage, h.Name, err)
		}
		msgs = out
	}
	return msgs, nil
}

func (d *Dispatcher) gateway(m *message.Message) (*gateway.Gateway, error) {
	if m.GatewayID == "" {
		return nil, fmt.Errorf("%w: message %s has no gateway", message.ErrRecipientRoute, m.UUID)
	}
	g, err := d.gateways.Get(m.GatewayID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", message.ErrRecipientRoute, err)
	}
	return g, nil
}

// Queue accepts a message for delivery. Messages bound to skip-queue
// gateways are sent or received immediately; the rest are stored for the
// queue processor. Each message is committed on its own: an error aborts
// the failing message, earlier ones stay committed.
func (d *Dispatcher) Queue(ctx context.Context, m *message.Message) ([]*message.Message, error) {
	if !m.Direction.Valid() {
		return nil, fmt.Errorf("queue message %s: %w", m.UUID, message.ErrDirection)
	}

	msgs, err := d.dispatch(ctx, StagePreProcess, []*message.Message{m})
	if err != nil {
		return nil, err
	}
	msgs, err = d.dispatch(ctx, StageQueuePreProcess, msgs)
	if err != nil {
		return nil, err
	}

	out := make([]*message.Message, 0, len(msgs))
	for _, msg := range msgs {
		msg.SetOption(message.OptionSkipPreprocess, "1")
		if err := msg.Validate(); err != nil {
			return out, fmt.Errorf("queue message %s: %w", msg.UUID, err)
		}
		g, err := d.gateway(msg)
		if err != nil {
			return out, err
		}

		if !g.SkipQueue {
			msg.Queued = false
			if err := d.store.Save(ctx, msg); err != nil {
				return out, fmt.Errorf("store queued message %s: %w", msg.UUID, err)
			}
			out = append(out, msg)
			continue
		}

		var done []*message.Message
		if msg.Direction == message.DirectionOutgoing {
			done, err = d.Send(ctx, msg)
		} else {
			done, err = d.Incoming(ctx, msg)
		}
		if err != nil {
			return out, err
		}
		if f := d.currentFinalizer(); f != nil {
			if err := f.Finalize(ctx, done); err != nil {
				return out, fmt.Errorf("finalize message %s: %w", msg.UUID, err)
			}
		}
		out = append(out, done...)
	}

	return d.dispatch(ctx, StageQueuePostProcess, out)
}

func (d *Dispatcher) currentFinalizer() Finalizer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.finalizer
}

// Send delivers an outgoing message through its gateway's plugin and
// attaches the plugin's result to every returned message.
func (d *Dispatcher) Send(ctx context.Context, m *message.Message) ([]*message.Message, error) {
	m.Direction = message.DirectionOutgoing

	msgs := []*message.Message{m}
	var err error
	if !m.SkipPreprocess() {
		if msgs, err = d.dispatch(ctx, StagePreProcess, msgs); err != nil {
			return nil, err
		}
	}
	if msgs, err = d.dispatch(ctx, StageOutgoingPreProcess, msgs); err != nil {
		return nil, err
	}

	for _, msg := range msgs {
		if len(msg.Recipients) == 0 {
			return nil, fmt.Errorf("send message %s: %w: no recipients", msg.UUID, message.ErrRecipientRoute)
		}
		g, err := d.gateway(msg)
		if err != nil {
			return nil, err
		}

		res, err := g.Plugin().Send(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("gateway %s: send message %s: %w", g.ID, msg.UUID, err)
		}
		msg.Result = res
		for _, rep := range res.Reports {
			if rep.GatewayID == "" {
				rep.GatewayID = g.ID
			}
		}
		if err := message.CheckIntegrity(msg); err != nil {
			return nil, err
		}
		log.Printf("[Pipeline] Sent message %s via %s to %d recipient(s)", msg.UUID, g.ID, len(msg.Recipients))
	}

	if msgs, err = d.dispatch(ctx, StageOutgoingPostProcess, msgs); err != nil {
		return nil, err
	}
	return d.dispatch(ctx, StagePostProcess, msgs)
}

// Incoming processes a message received from a gateway. The gateway of the
// message that entered the call gets a single batch-level callback; gateway
// changes made by hooks are not honored.
func (d *Dispatcher) Incoming(ctx context.Context, m *message.Message) ([]*message.Message, error) {
	m.Direction = message.DirectionIncoming

	g, err := d.gateway(m)
	if err != nil {
		return nil, err
	}
	if !g.Capabilities().SupportsIncoming {
		return nil, fmt.Errorf("%w: gateway %s does not support incoming messages", message.ErrValidation, g.ID)
	}

	msgs := []*message.Message{m}
	if !m.SkipPreprocess() {
		if msgs, err = d.dispatch(ctx, StagePreProcess, msgs); err != nil {
			return nil, err
		}
	}
	if msgs, err = d.dispatch(ctx, StageIncomingPreProcess, msgs); err != nil {
		return nil, err
	}

	if h, ok := g.Plugin().(gateway.IncomingHandler); ok {
		if msgs, err = h.Incoming(ctx, msgs); err != nil {
			return nil, fmt.Errorf("gateway %s: incoming: %w", g.ID, err)
		}
	}
	for _, msg := range msgs {
		if err := message.CheckIntegrity(msg); err != nil {
			return nil, err
		}
	}

	if msgs, err = d.dispatch(ctx, StageIncomingPostProcess, msgs); err != nil {
		return nil, err
	}
	return d.dispatch(ctx, StagePostProcess, msgs)
}
