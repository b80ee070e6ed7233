package service

import (
	"context"
	"testing"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeMessage(t *testing.T, repo *memMessages, gatewayID string, mutate func(m *message.Message)) *message.Message {
	t.Helper()
	m := outgoing("hello", "+1")
	m.GatewayID = gatewayID
	if mutate != nil {
		mutate(m)
	}
	require.NoError(t, repo.Save(context.Background(), m))
	return m
}

func TestQueueProcessor_ProcessUnqueued(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	reg, _ := newRegistry(t, "",
		fixture{def: gateway.Definition{ID: "plain"}},
		fixture{def: gateway.Definition{ID: "sched"}, caps: gateway.Capabilities{ScheduleAware: true}},
	)
	repo := newMemMessages()
	q := &memQueue{}
	p := NewQueueProcessor(repo, reg, q, 0)
	p.now = fixedNow(now)

	due := storeMessage(t, repo, "plain", func(m *message.Message) { m.SendTime = now.Add(-time.Minute) })
	storeMessage(t, repo, "plain", func(m *message.Message) { m.SendTime = now.Add(time.Hour) })
	future := storeMessage(t, repo, "sched", func(m *message.Message) { m.SendTime = now.Add(time.Hour) })
	storeMessage(t, repo, "plain", func(m *message.Message) {
		m.SendTime = now.Add(-time.Minute)
		m.MarkProcessed(now.Add(-time.Second))
	})

	n, err := p.ProcessUnqueued(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids := []string{q.items[0].ID, q.items[1].ID}
	assert.ElementsMatch(t, []string{due.UUID.String(), future.UUID.String()}, ids)

	claimed, err := repo.Get(context.Background(), due.UUID)
	require.NoError(t, err)
	assert.True(t, claimed.Queued)

	// Claimed messages are not submitted twice.
	n, err = p.ProcessUnqueued(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQueueProcessor_ReleasesClaimWhenSubmitFails(t *testing.T) {
	reg, _ := newRegistry(t, "", fixture{def: gateway.Definition{ID: "plain"}})
	repo := newMemMessages()
	q := &memQueue{pushErr: errBoom}
	p := NewQueueProcessor(repo, reg, q, 10)

	m := storeMessage(t, repo, "plain", func(m *message.Message) { m.SendTime = time.Now().Add(-time.Minute) })

	n, err := p.ProcessUnqueued(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, n)

	stored, err := repo.Get(context.Background(), m.UUID)
	require.NoError(t, err)
	assert.False(t, stored.Queued)
}

func TestQueueProcessor_GarbageCollection(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	reg, _ := newRegistry(t, "", fixture{def: gateway.Definition{
		ID:        "plain",
		Retention: gateway.Retention{Outgoing: 60, Incoming: gateway.RetainForever},
	}})
	repo := newMemMessages()
	p := NewQueueProcessor(repo, reg, &memQueue{}, 0)
	p.now = fixedNow(now)

	old := storeMessage(t, repo, "plain", func(m *message.Message) { m.MarkProcessed(now.Add(-2 * time.Minute)) })
	recent := storeMessage(t, repo, "plain", func(m *message.Message) { m.MarkProcessed(now.Add(-30 * time.Second)) })
	incoming := storeMessage(t, repo, "plain", func(m *message.Message) {
		m.Direction = message.DirectionIncoming
		m.MarkProcessed(now.Add(-time.Hour))
	})
	pending := storeMessage(t, repo, "plain", nil)

	n, err := p.GarbageCollection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ctx := context.Background()
	_, err = repo.Get(ctx, old.UUID)
	assert.ErrorIs(t, err, message.ErrNotFound)
	for _, kept := range []*message.Message{recent, incoming, pending} {
		_, err := repo.Get(ctx, kept.UUID)
		assert.NoError(t, err)
	}
}
