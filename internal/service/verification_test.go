package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/domain/owner"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"github.com/oggyb/sms-framework/internal/flood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verificationEnv struct {
	svc    *VerificationService
	repo   *memVerifications
	owners *memOwners
	sent   *recordingQueuer
	ref    owner.Ref
	now    time.Time
}

func newVerificationEnv(t *testing.T, purgePhone bool) *verificationEnv {
	t.Helper()
	ref := owner.Ref{Type: "user", ID: "u1"}
	owners := &memOwners{owners: map[string]*owner.Owner{
		"u1": {Ref: ref, Bundle: "user", PhoneNumbers: []string{"+15550001", "+15550002"}},
	}}
	reg := owner.NewRegistry()
	reg.Register("user", owners)

	settings := verification.NewSettingsRegistry(&verification.Settings{
		OwnerType:       "user",
		Bundle:          "user",
		MessageTemplate: "Your code is {{ code }}",
		VerifiedReply:   "Thanks, your number is verified.",
		Lifetime:        15 * time.Minute,
		PurgePhone:      purgePhone,
		CodeLength:      6,
	})

	c, _ := newTestCache(t)
	repo := newMemVerifications()
	sent := &recordingQueuer{}
	svc := NewVerificationService(repo, settings, reg, sent, flood.New(c), 3, time.Hour)

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = fixedNow(now)

	return &verificationEnv{svc: svc, repo: repo, owners: owners, sent: sent, ref: ref, now: now}
}

func TestVerification_NewPhoneVerification(t *testing.T) {
	env := newVerificationEnv(t, false)

	v, err := env.svc.NewPhoneVerification(context.Background(), env.ref, "+15550001")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), v.Code)
	assert.False(t, v.Status)

	stored, ok := env.repo.get(v.ID)
	require.True(t, ok)
	assert.Equal(t, env.ref, stored.Owner)

	require.Len(t, env.sent.msgs, 1)
	m := env.sent.msgs[0]
	assert.Equal(t, "Your code is "+v.Code, m.Body)
	assert.Equal(t, []string{"+15550001"}, m.Recipients)
	assert.False(t, m.Automated)
	assert.Equal(t, message.DirectionOutgoing, m.Direction)
}

func TestVerification_MissingSettings(t *testing.T) {
	env := newVerificationEnv(t, false)
	env.owners.owners["u1"].Bundle = "staff"

	_, err := env.svc.NewPhoneVerification(context.Background(), env.ref, "+15550001")
	assert.ErrorIs(t, err, verification.ErrSettings)
}

func TestVerification_SendFailurePropagates(t *testing.T) {
	env := newVerificationEnv(t, false)
	env.sent.err = errBoom

	_, err := env.svc.NewPhoneVerification(context.Background(), env.ref, "+15550001")
	assert.ErrorIs(t, err, errBoom)
}

func TestVerification_Verify(t *testing.T) {
	env := newVerificationEnv(t, false)
	ctx := context.Background()

	v, err := env.svc.NewPhoneVerification(ctx, env.ref, "+15550001")
	require.NoError(t, err)

	got, err := env.svc.Verify(ctx, v.Code, "client-1")
	require.NoError(t, err)
	assert.True(t, got.Status)
	assert.Empty(t, got.Code)

	stored, _ := env.repo.get(v.ID)
	assert.True(t, stored.Status)

	require.Len(t, env.sent.msgs, 2, "verified reply is queued")
	assert.Equal(t, "Thanks, your number is verified.", env.sent.msgs[1].Body)

	_, err = env.svc.Verify(ctx, v.Code, "client-1")
	assert.ErrorIs(t, err, verification.ErrNotFound)
}

func TestVerification_VerifyReplyFailureIsSwallowed(t *testing.T) {
	env := newVerificationEnv(t, false)
	ctx := context.Background()

	v, err := env.svc.NewPhoneVerification(ctx, env.ref, "+15550001")
	require.NoError(t, err)

	env.sent.err = errBoom
	got, err := env.svc.Verify(ctx, v.Code, "client-1")
	require.NoError(t, err)
	assert.True(t, got.Status)
}

func TestVerification_VerifyExpired(t *testing.T) {
	env := newVerificationEnv(t, false)
	ctx := context.Background()

	v, err := env.svc.NewPhoneVerification(ctx, env.ref, "+15550001")
	require.NoError(t, err)

	env.svc.now = fixedNow(env.now.Add(15*time.Minute + time.Second))
	_, err = env.svc.Verify(ctx, v.Code, "client-1")
	assert.ErrorIs(t, err, verification.ErrExpired)

	stored, _ := env.repo.get(v.ID)
	assert.False(t, stored.Status)
}

func TestVerification_FloodControl(t *testing.T) {
	env := newVerificationEnv(t, false)
	ctx := context.Background()

	for range 3 {
		_, err := env.svc.Verify(ctx, "000000", "client-1")
		assert.ErrorIs(t, err, verification.ErrNotFound)
	}
	_, err := env.svc.Verify(ctx, "000000", "client-1")
	assert.ErrorIs(t, err, verification.ErrFloodControl)

	// Other identifiers have their own counter.
	_, err = env.svc.Verify(ctx, "000000", "client-2")
	assert.ErrorIs(t, err, verification.ErrNotFound)
}

func TestVerification_FloodControlConcurrent(t *testing.T) {
	env := newVerificationEnv(t, false)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		blocked int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Verify(ctx, "000000", "client-1")
			if errors.Is(err, verification.ErrFloodControl) {
				mu.Lock()
				blocked++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Only the threshold of three gets through to the code lookup.
	assert.Equal(t, 7, blocked)
}

func TestVerification_PurgeExpired(t *testing.T) {
	for _, purge := range []bool{true, false} {
		env := newVerificationEnv(t, purge)
		ctx := context.Background()

		expired, err := env.svc.NewPhoneVerification(ctx, env.ref, "+15550001")
		require.NoError(t, err)

		env.svc.now = fixedNow(env.now.Add(10 * time.Minute))
		fresh, err := env.svc.NewPhoneVerification(ctx, env.ref, "+15550002")
		require.NoError(t, err)

		env.svc.now = fixedNow(env.now.Add(20 * time.Minute))
		n, err := env.svc.PurgeExpiredVerifications(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, ok := env.repo.get(expired.ID)
		assert.False(t, ok)
		_, ok = env.repo.get(fresh.ID)
		assert.True(t, ok)

		o, err := env.owners.Load(ctx, "u1")
		require.NoError(t, err)
		if purge {
			assert.Equal(t, []string{"+15550002"}, o.PhoneNumbers)
		} else {
			assert.Equal(t, []string{"+15550001", "+15550002"}, o.PhoneNumbers)
		}
	}
}

func TestVerification_PurgeKeepsVerified(t *testing.T) {
	env := newVerificationEnv(t, true)
	ctx := context.Background()

	v, err := env.svc.NewPhoneVerification(ctx, env.ref, "+15550001")
	require.NoError(t, err)
	_, err = env.svc.Verify(ctx, v.Code, "client-1")
	require.NoError(t, err)

	env.svc.now = fixedNow(env.now.Add(24 * time.Hour))
	n, err := env.svc.PurgeExpiredVerifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestVerification_UpdateByOwner(t *testing.T) {
	env := newVerificationEnv(t, false)
	ctx := context.Background()

	stale := &verification.Verification{Owner: env.ref, PhoneNumber: "+15559999", Code: "111111", CreatedAt: env.now}
	require.NoError(t, env.repo.Create(ctx, stale))
	kept, err := env.svc.NewPhoneVerification(ctx, env.ref, "+15550001")
	require.NoError(t, err)

	require.NoError(t, env.svc.UpdateByOwner(ctx, env.ref))

	recs, err := env.repo.FindByOwner(ctx, env.ref)
	require.NoError(t, err)
	phones := make([]string, 0, len(recs))
	for _, v := range recs {
		phones = append(phones, v.PhoneNumber)
	}
	assert.ElementsMatch(t, []string{"+15550001", "+15550002"}, phones)

	_, ok := env.repo.get(kept.ID)
	assert.True(t, ok, "existing verification is not reissued")
	_, ok = env.repo.get(stale.ID)
	assert.False(t, ok)
}

func TestVerification_ByPhone(t *testing.T) {
	env := newVerificationEnv(t, false)
	ctx := context.Background()

	v, err := env.svc.NewPhoneVerification(ctx, env.ref, "+15550001")
	require.NoError(t, err)

	unverified := false
	recs, err := env.svc.VerificationByPhone(ctx, "+15550001", &unverified)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, v.ID, recs[0].ID)

	verified := true
	recs, err = env.svc.VerificationByPhone(ctx, "+15550001", &verified)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestVerification_ReplyHook(t *testing.T) {
	env := newVerificationEnv(t, false)
	ctx := context.Background()

	v, err := env.svc.NewPhoneVerification(ctx, env.ref, "+15550001")
	require.NoError(t, err)

	hook := env.svc.ReplyHook()

	wrongSender := message.New(v.Code, "+15550002")
	wrongSender.Direction = message.DirectionIncoming
	_, err = hook.Handle(ctx, []*message.Message{wrongSender})
	require.NoError(t, err)
	stored, _ := env.repo.get(v.ID)
	assert.False(t, stored.Status)

	in := message.New(" "+v.Code+" ", "+15550001")
	in.Direction = message.DirectionIncoming
	out, err := hook.Handle(ctx, []*message.Message{in})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	stored, _ = env.repo.get(v.ID)
	assert.True(t, stored.Status)
}
