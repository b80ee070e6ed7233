// Package owner models entities that own phone numbers (users, teams, ...).
//
// Owners are referenced polymorphically through a (Type, ID) pair and
// resolved through a Registry of per-type stores.
package owner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrUnknownType is returned when no store is registered for an owner type.
	ErrUnknownType = errors.New("unknown owner type")
	// ErrNotFound is returned by stores when the owner does not exist.
	ErrNotFound = errors.New("owner not found")
)

// Ref is a polymorphic reference to an owning entity.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// String returns the "type:id" form of the reference.
func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

// IsZero reports whether the reference points at nothing.
func (r Ref) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

// Owner is the loaded view of an entity owning phone numbers.
type Owner struct {
	Ref          Ref
	Bundle       string
	PhoneNumbers []string
	// Timezone is nil for owners that are not timezone aware.
	Timezone *time.Location
}

// Store loads and mutates owners of a single type.
type Store interface {
	Load(ctx context.Context, id string) (*Owner, error)
	RemovePhoneNumber(ctx context.Context, id, phone string) error
}

// Registry resolves owner references to their type's store.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]Store
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Store)}
}

// Register binds a store to an owner type, replacing any previous binding.
func (r *Registry) Register(ownerType string, s Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[ownerType] = s
}

func (r *Registry) store(ownerType string) (Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[ownerType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, ownerType)
	}
	return s, nil
}

// Load resolves ref through the store registered for its type.
func (r *Registry) Load(ctx context.Context, ref Ref) (*Owner, error) {
	s, err := r.store(ref.Type)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, ref.ID)
}

// RemovePhoneNumber removes phone from the owner's phone field.
func (r *Registry) RemovePhoneNumber(ctx context.Context, ref Ref, phone string) error {
	s, err := r.store(ref.Type)
	if err != nil {
		return err
	}
	return s.RemovePhoneNumber(ctx, ref.ID, phone)
}
