package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerification_Expired(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	v := &Verification{CreatedAt: created}

	assert.False(t, v.Expired(created.Add(time.Hour), time.Hour))
	assert.True(t, v.Expired(created.Add(time.Hour+time.Second), time.Hour))
}

func TestVerification_MarkVerified(t *testing.T) {
	v := &Verification{Code: "1234"}
	v.MarkVerified()
	assert.True(t, v.Status)
	assert.Empty(t, v.Code)
}

func TestSettingsRegistry(t *testing.T) {
	r := NewSettingsRegistry(
		&Settings{OwnerType: "user", Bundle: "user", Lifetime: time.Hour},
		&Settings{OwnerType: "team", Bundle: "default"},
	)
	r.Put(&Settings{OwnerType: "user", Bundle: "user", Lifetime: 2 * time.Hour})

	s, err := r.Get("user", "user")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, s.Lifetime)
	assert.Len(t, r.All(), 2)

	_, err = r.Get("user", "admin")
	assert.ErrorIs(t, err, ErrSettings)
}
