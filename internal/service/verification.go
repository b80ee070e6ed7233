package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/domain/owner"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"github.com/oggyb/sms-framework/internal/flood"
	"github.com/oggyb/sms-framework/internal/pipeline"
	"github.com/osteele/liquid"
)

const (
	// floodAction is the flood-control action verification attempts count against.
	floodAction = "sms_verify"

	defaultCodeLength     = 6
	defaultFloodThreshold = 5
	defaultFloodWindow    = time.Hour

	// codeAttempts bounds retries when a generated code collides with an
	// active one.
	codeAttempts = 5
)

// Queuer accepts messages into the pipeline.
type Queuer interface {
	Queue(ctx context.Context, m *message.Message) ([]*message.Message, error)
}

// VerificationService issues, confirms and expires phone number
// verification codes.
type VerificationService struct {
	repo     verification.Repository
	settings *verification.SettingsRegistry
	owners   *owner.Registry
	sender   Queuer
	flood    *flood.Control

	floodThreshold int
	floodWindow    time.Duration

	templates *liquid.Engine
	now       func() time.Time
}

// NewVerificationService creates a verification service. Flood control
// values <= 0 fall back to 5 attempts per hour.
func NewVerificationService(
	repo verification.Repository,
	settings *verification.SettingsRegistry,
	owners *owner.Registry,
	sender Queuer,
	floodControl *flood.Control,
	floodThreshold int,
	floodWindow time.Duration,
) *VerificationService {
	if floodThreshold <= 0 {
		floodThreshold = defaultFloodThreshold
	}
	if floodWindow <= 0 {
		floodWindow = defaultFloodWindow
	}
	return &VerificationService{
		repo:           repo,
		settings:       settings,
		owners:         owners,
		sender:         sender,
		flood:          floodControl,
		floodThreshold: floodThreshold,
		floodWindow:    floodWindow,
		templates:      liquid.NewEngine(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// settingsFor loads the owner and returns the settings of its type and bundle.
func (s *VerificationService) settingsFor(ctx context.Context, ref owner.Ref) (*owner.Owner, *verification.Settings, error) {
	o, err := s.owners.Load(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	st, err := s.settings.Get(ref.Type, o.Bundle)
	if err != nil {
		return o, nil, err
	}
	return o, st, nil
}

// NewPhoneVerification stores an unverified record for phone and texts the
// code to it.
func (s *VerificationService) NewPhoneVerification(ctx context.Context, ref owner.Ref, phone string) (*verification.Verification, error) {
	_, st, err := s.settingsFor(ctx, ref)
	if err != nil {
		return nil, err
	}

	code, err := s.uniqueCode(ctx, st.CodeLength)
	if err != nil {
		return nil, err
	}

	v := &verification.Verification{
		Owner:       ref,
		PhoneNumber: phone,
		Code:        code,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create verification for %s: %w", phone, err)
	}

	body, err := s.render(st.MessageTemplate, code)
	if err != nil {
		return nil, err
	}
	if err := s.send(ctx, ref, phone, body); err != nil {
		return nil, err
	}

	log.Printf("[Verification] Issued code for %s (%s)", phone, ref)
	return v, nil
}

// Verify confirms the unverified record holding code. Every attempt counts
// against the flood-control window of identifier.
func (s *VerificationService) Verify(ctx context.Context, code, identifier string) (*verification.Verification, error) {
	allowed, err := s.flood.Attempt(ctx, floodAction, identifier, s.floodThreshold, s.floodWindow)
	if err != nil {
		return nil, fmt.Errorf("flood control: %w", err)
	}
	if !allowed {
		return nil, verification.ErrFloodControl
	}

	v, err := s.repo.FindUnverifiedByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	_, st, err := s.settingsFor(ctx, v.Owner)
	if err != nil {
		return nil, err
	}
	if v.Expired(s.now(), st.Lifetime) {
		return nil, verification.ErrExpired
	}

	v.MarkVerified()
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update verification %d: %w", v.ID, err)
	}
	log.Printf("[Verification] Verified %s (%s)", v.PhoneNumber, v.Owner)

	s.reply(ctx, v, st)
	return v, nil
}

// reply sends the configured confirmation. Failures are logged only.
func (s *VerificationService) reply(ctx context.Context, v *verification.Verification, st *verification.Settings) {
	if st.VerifiedReply == "" {
		return
	}
	body, err := s.render(st.VerifiedReply, "")
	if err != nil {
		log.Printf("[Verification] Failed to render reply for %s: %v", v.PhoneNumber, err)
		return
	}
	if err := s.send(ctx, v.Owner, v.PhoneNumber, body); err != nil {
		log.Printf("[Verification] Failed to send reply to %s: %v", v.PhoneNumber, err)
	}
}

// PurgeExpiredVerifications deletes unverified records older than their
// settings' lifetime and, where enabled, removes the phone number from the
// owner.
func (s *VerificationService) PurgeExpiredVerifications(ctx context.Context) (int, error) {
	now := s.now()
	purged := 0
	var errs []error

	for _, st := range s.settings.All() {
		recs, err := s.repo.FindUnverifiedCreatedBefore(ctx, st.OwnerType, now.Add(-st.Lifetime))
		if err != nil {
			errs = append(errs, fmt.Errorf("find expired %s verifications: %w", st.OwnerType, err))
			continue
		}

		for _, v := range recs {
			if !v.Expired(now, st.Lifetime) {
				continue
			}
			o, err := s.owners.Load(ctx, v.Owner)
			switch {
			case errors.Is(err, owner.ErrNotFound):
				o = nil
			case err != nil:
				errs = append(errs, err)
				continue
			case o.Bundle != st.Bundle:
				continue
			}

			if err := s.repo.Delete(ctx, v.ID); err != nil {
				errs = append(errs, fmt.Errorf("delete verification %d: %w", v.ID, err))
				continue
			}
			purged++

			if o != nil && st.PurgePhone {
				if err := s.owners.RemovePhoneNumber(ctx, v.Owner, v.PhoneNumber); err != nil {
					errs = append(errs, fmt.Errorf("remove %s from %s: %w", v.PhoneNumber, v.Owner, err))
				}
			}
		}
	}

	if purged > 0 {
		log.Printf("[Verification] Purged %d expired verification(s)", purged)
	}
	return purged, errors.Join(errs...)
}

// UpdateByOwner syncs verification records with the owner's current phone
// numbers: new numbers get a verification, removed ones lose theirs.
func (s *VerificationService) UpdateByOwner(ctx context.Context, ref owner.Ref) error {
	o, err := s.owners.Load(ctx, ref)
	if err != nil {
		return err
	}
	existing, err := s.repo.FindByOwner(ctx, ref)
	if err != nil {
		return fmt.Errorf("load verifications for %s: %w", ref, err)
	}

	known := make([]string, 0, len(existing))
	for _, v := range existing {
		if !slices.Contains(o.PhoneNumbers, v.PhoneNumber) {
			if err := s.repo.Delete(ctx, v.ID); err != nil {
				return fmt.Errorf("delete verification %d: %w", v.ID, err)
			}
			continue
		}
		known = append(known, v.PhoneNumber)
	}

	for _, phone := range o.PhoneNumbers {
		if slices.Contains(known, phone) {
			continue
		}
		if _, err := s.NewPhoneVerification(ctx, ref, phone); err != nil {
			return err
		}
	}
	return nil
}

// VerificationByPhone returns the records for a phone number, optionally
// filtered by status.
func (s *VerificationService) VerificationByPhone(ctx context.Context, phone string, status *bool) ([]*verification.Verification, error) {
	return s.repo.FindByPhone(ctx, phone, status)
}

// ReplyHook verifies numbers by SMS: an incoming message whose body is an
// active code, sent from the number being verified, confirms it.
func (s *VerificationService) ReplyHook() pipeline.Hook {
	return pipeline.Hook{
		Stage: pipeline.StageIncomingPostProcess,
		Name:  "verification-reply",
		Handle: func(ctx context.Context, msgs []*message.Message) ([]*message.Message, error) {
			for _, m := range msgs {
				code := strings.TrimSpace(m.Body)
				if code == "" {
					continue
				}
				v, err := s.repo.FindUnverifiedByCode(ctx, code)
				if err != nil {
					if !errors.Is(err, verification.ErrNotFound) {
						log.Printf("[Verification] Lookup for incoming %s failed: %v", m.UUID, err)
					}
					continue
				}
				if !slices.Contains(m.Recipients, v.PhoneNumber) {
					continue
				}
				if _, err := s.Verify(ctx, code, v.PhoneNumber); err != nil {
					log.Printf("[Verification] Incoming verification for %s failed: %v", v.PhoneNumber, err)
				}
			}
			return msgs, nil
		},
	}
}

func (s *VerificationService) send(ctx context.Context, ref owner.Ref, phone, body string) error {
	m := message.New(body, phone)
	m.Direction = message.DirectionOutgoing
	m.Automated = false
	m.RecipientOwner = &ref
	if _, err := s.sender.Queue(ctx, m); err != nil {
		return fmt.Errorf("queue verification message to %s: %w", phone, err)
	}
	return nil
}

func (s *VerificationService) render(tpl, code string) (string, error) {
	out, err := s.templates.ParseAndRenderString(tpl, map[string]any{"code": code})
	if err != nil {
		return "", fmt.Errorf("%w: render template: %v", verification.ErrSettings, err)
	}
	return out, nil
}

func (s *VerificationService) uniqueCode(ctx context.Context, length int) (string, error) {
	if length <= 0 {
		length = defaultCodeLength
	}
	for range codeAttempts {
		code, err := randomCode(length)
		if err != nil {
			return "", err
		}
		_, err = s.repo.FindUnverifiedByCode(ctx, code)
		if errors.Is(err, verification.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
	}
	return "", fmt.Errorf("could not generate a unique verification code")
}

// randomCode returns a string of length decimal digits.
func randomCode(length int) (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for range length {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
