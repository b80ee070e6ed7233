// Package verification models phone-number ownership verification records
// and the per-owner-type settings that govern them.
package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/owner"
)

var (
	// ErrNotFound is returned when no verification matches a lookup.
	ErrNotFound = errors.New("verification not found")
	// ErrExpired is returned when a code is used after its lifetime.
	ErrExpired = errors.New("verification code expired")
	// ErrSettings is returned when no verification settings exist for an
	// owner's type and bundle.
	ErrSettings = errors.New("no phone verification settings")
	// ErrFloodControl is returned when too many verification attempts were made.
	ErrFloodControl = errors.New("too many verification attempts")
)

// Verification ties a phone number to the entity claiming it.
type Verification struct {
	ID          uint
	Owner       owner.Ref
	PhoneNumber string
	Code        string
	// Status is false until the code has been confirmed.
	Status    bool
	CreatedAt time.Time
}

// Expired reports whether the record outlived lifetime at now.
func (v *Verification) Expired(now time.Time, lifetime time.Duration) bool {
	return now.Sub(v.CreatedAt) > lifetime
}

// MarkVerified moves the record into its terminal verified state.
func (v *Verification) MarkVerified() {
	v.Status = true
	v.Code = ""
}

// Settings configures phone verification for one (owner type, bundle).
type Settings struct {
	OwnerType string
	Bundle    string
	// MessageTemplate is a liquid template rendered with {{ code }}.
	MessageTemplate string
	// VerifiedReply is an optional liquid template sent once a number is
	// verified. Empty disables the reply.
	VerifiedReply string
	Lifetime      time.Duration
	// PurgePhone removes the phone number from the owner when its
	// verification expires.
	PurgePhone bool
	CodeLength int
}

// SettingsRegistry resolves settings by owner type and bundle.
type SettingsRegistry struct {
	mu       sync.RWMutex
	settings map[string]*Settings
	order    []string
}

// NewSettingsRegistry builds a registry from the given settings.
func NewSettingsRegistry(settings ...*Settings) *SettingsRegistry {
	r := &SettingsRegistry{settings: make(map[string]*Settings)}
	for _, s := range settings {
		r.Put(s)
	}
	return r
}

func settingsKey(ownerType, bundle string) string {
	return ownerType + "." + bundle
}

// Put adds or replaces settings.
func (r *SettingsRegistry) Put(s *Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := settingsKey(s.OwnerType, s.Bundle)
	if _, ok := r.settings[key]; !ok {
		r.order = append(r.order, key)
	}
	r.settings[key] = s
}

// Get returns the settings for an owner type and bundle.
func (r *SettingsRegistry) Get(ownerType, bundle string) (*Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[settingsKey(ownerType, bundle)]
	if !ok {
		return nil, fmt.Errorf("%w for %s.%s", ErrSettings, ownerType, bundle)
	}
	return s, nil
}

// All returns every registered settings entry in insertion order.
func (r *SettingsRegistry) All() []*Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Settings, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.settings[k])
	}
	return out
}

// Repository persists verification records.
type Repository interface {
	Create(ctx context.Context, v *Verification) error
	// FindUnverifiedByCode returns the unverified record holding code.
	FindUnverifiedByCode(ctx context.Context, code string) (*Verification, error)
	FindByOwner(ctx context.Context, ref owner.Ref) ([]*Verification, error)
	// FindByPhone returns records for a phone number, optionally filtered
	// by status.
	FindByPhone(ctx context.Context, phone string, status *bool) ([]*Verification, error)
	// FindUnverifiedCreatedBefore returns unverified records of ownerType
	// created before cutoff.
	FindUnverifiedCreatedBefore(ctx context.Context, ownerType string, cutoff time.Time) ([]*Verification, error)
	Update(ctx context.Context, v *Verification) error
	Delete(ctx context.Context, id uint) error
}
