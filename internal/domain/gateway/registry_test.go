package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPlugin struct {
	caps Capabilities
}

func (p nopPlugin) Capabilities() Capabilities { return p.caps }

func (p nopPlugin) Send(context.Context, *message.Message) (*message.Result, error) {
	return &message.Result{}, nil
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.RegisterPlugin("nop", func(settings map[string]string) (Plugin, error) {
		return nopPlugin{caps: Capabilities{MaxOutgoingRecipients: 10}}, nil
	})
	r.RegisterPlugin("broken", func(map[string]string) (Plugin, error) {
		return nil, errors.New("missing url")
	})
	return r
}

func TestRegistry_LoadAndLookup(t *testing.T) {
	r := newTestRegistry()
	err := r.Load([]Definition{
		{ID: "a", Plugin: "nop", Retention: Retention{Incoming: 0, Outgoing: RetainForever}},
		{ID: "b", Plugin: "nop", SkipQueue: true},
	}, "b")
	require.NoError(t, err)

	a, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 10, a.Capabilities().MaxOutgoingRecipients)
	assert.Equal(t, 0, a.RetentionFor(message.DirectionIncoming))
	assert.Equal(t, RetainForever, a.RetentionFor(message.DirectionOutgoing))

	fb, ok := r.Fallback()
	require.True(t, ok)
	assert.Equal(t, "b", fb.ID)

	ids := []string{}
	for _, g := range r.All() {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)

	_, err = r.Get("zzz")
	assert.ErrorIs(t, err, ErrUnknownGateway)
}

func TestRegistry_LoadErrorsKeepPreviousState(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Load([]Definition{{ID: "a", Plugin: "nop"}}, ""))

	tests := []struct {
		name string
		defs []Definition
		fb   string
	}{
		{name: "unknown plugin", defs: []Definition{{ID: "x", Plugin: "nope"}}},
		{name: "factory error", defs: []Definition{{ID: "x", Plugin: "broken"}}},
		{name: "duplicate", defs: []Definition{{ID: "x", Plugin: "nop"}, {ID: "x", Plugin: "nop"}}},
		{name: "missing id", defs: []Definition{{Plugin: "nop"}}},
		{name: "unknown fallback", defs: []Definition{{ID: "x", Plugin: "nop"}}, fb: "y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, r.Load(tt.defs, tt.fb))
			_, err := r.Get("a")
			assert.NoError(t, err)
		})
	}

	_, ok := r.Fallback()
	assert.False(t, ok)
	assert.Equal(t, []string{"broken", "nop"}, r.Plugins())
}
