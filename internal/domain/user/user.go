// Package user holds the user entity, the default owner of phone numbers.
package user

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/owner"
)

// OwnerType is the owner type users are registered under.
const OwnerType = "user"

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// User is a site account that may own phone numbers.
type User struct {
	ID           string
	Name         string
	Timezone     string
	PhoneNumbers []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Ref returns the owner reference for the user.
func (u *User) Ref() owner.Ref {
	return owner.Ref{Type: OwnerType, ID: u.ID}
}

// SetPhoneNumbers replaces the phone field, dropping blanks and duplicates.
func (u *User) SetPhoneNumbers(numbers []string) {
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		n = strings.TrimSpace(n)
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	u.PhoneNumbers = out
}

// Location resolves the user's timezone; nil when unset.
func (u *User) Location() (*time.Location, error) {
	if u.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return nil, fmt.Errorf("user %s: invalid timezone %q: %w", u.ID, u.Timezone, err)
	}
	return loc, nil
}

// Repository persists users.
type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	Save(ctx context.Context, u *User) error
}

// OwnerStore exposes users through the owner registry.
type OwnerStore struct {
	repo Repository
}

// NewOwnerStore wraps a user repository as an owner store.
func NewOwnerStore(repo Repository) *OwnerStore {
	return &OwnerStore{repo: repo}
}

// Load implements owner.Store.
func (s *OwnerStore) Load(ctx context.Context, id string) (*owner.Owner, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", owner.ErrNotFound, id)
		}
		return nil, err
	}
	loc, err := u.Location()
	if err != nil {
		return nil, err
	}
	return &owner.Owner{
		Ref:          u.Ref(),
		Bundle:       OwnerType,
		PhoneNumbers: slices.Clone(u.PhoneNumbers),
		Timezone:     loc,
	}, nil
}

// RemovePhoneNumber implements owner.Store.
func (s *OwnerStore) RemovePhoneNumber(ctx context.Context, id, phone string) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !slices.Contains(u.PhoneNumbers, phone) {
		return nil
	}
	u.PhoneNumbers = slices.DeleteFunc(u.PhoneNumbers, func(p string) bool { return p == phone })
	return s.repo.Save(ctx, u)
}

var _ owner.Store = (*OwnerStore)(nil)
