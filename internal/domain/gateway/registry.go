package gateway

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownGateway is returned when a gateway id is not registered.
	ErrUnknownGateway = errors.New("unknown gateway")
	// ErrUnknownPlugin is returned when a definition names an unknown plugin.
	ErrUnknownPlugin = errors.New("unknown gateway plugin")
)

// Registry holds the plugin factories and the configured gateways.
// Gateways can be reloaded at runtime; callers look them up on every
// dispatch so changes apply to the next message, never retroactively.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	gateways  map[string]*Gateway
	order     []string
	fallback  string
}

// NewRegistry returns a registry with no plugins and no gateways.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		gateways:  make(map[string]*Gateway),
	}
}

// RegisterPlugin makes a plugin available under id.
func (r *Registry) RegisterPlugin(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// Plugins lists the registered plugin ids, sorted.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load replaces the configured gateways with defs and sets the site
// fallback gateway (may be empty). Nothing changes if any definition fails.
func (r *Registry) Load(defs []Definition, fallback string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	gateways := make(map[string]*Gateway, len(defs))
	order := make([]string, 0, len(defs))
	for _, def := range defs {
		if def.ID == "" {
			return fmt.Errorf("gateway definition without id")
		}
		if _, dup := gateways[def.ID]; dup {
			return fmt.Errorf("duplicate gateway %q", def.ID)
		}
		factory, ok := r.factories[def.Plugin]
		if !ok {
			return fmt.Errorf("gateway %q: %w: %q", def.ID, ErrUnknownPlugin, def.Plugin)
		}
		p, err := factory(def.Settings)
		if err != nil {
			return fmt.Errorf("gateway %q: build plugin: %w", def.ID, err)
		}
		gateways[def.ID] = New(def, p)
		order = append(order, def.ID)
	}
	if fallback != "" {
		if _, ok := gateways[fallback]; !ok {
			return fmt.Errorf("fallback %w: %q", ErrUnknownGateway, fallback)
		}
	}

	r.gateways = gateways
	r.order = order
	r.fallback = fallback
	return nil
}

// Get returns the gateway with the given id.
func (r *Registry) Get(id string) (*Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, id)
	}
	return g, nil
}

// All returns the gateways in configuration order.
func (r *Registry) All() []*Gateway {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Gateway, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.gateways[id])
	}
	return out
}

// Fallback returns the site-wide fallback gateway, if one is configured.
func (r *Registry) Fallback() (*Gateway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.fallback == "" {
		return nil, false
	}
	g, ok := r.gateways[r.fallback]
	return g, ok
}
