package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/cache"
	cacheredis "github.com/oggyb/sms-framework/internal/cache/redis"
	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/domain/owner"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"github.com/oggyb/sms-framework/internal/queue"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakePlugin answers every send with a queued report per recipient.
type fakePlugin struct {
	caps gateway.Capabilities

	mu    sync.Mutex
	sends [][]string
}

func (p *fakePlugin) Capabilities() gateway.Capabilities { return p.caps }

func (p *fakePlugin) Send(_ context.Context, m *message.Message) (*message.Result, error) {
	p.mu.Lock()
	p.sends = append(p.sends, slices.Clone(m.Recipients))
	p.mu.Unlock()

	res := &message.Result{}
	for _, rcpt := range m.Recipients {
		res.Reports = append(res.Reports, &message.DeliveryReport{
			MessageID: "gw-" + rcpt,
			Recipient: rcpt,
			Status:    message.StatusQueued,
		})
	}
	return res, nil
}

func (p *fakePlugin) Incoming(_ context.Context, msgs []*message.Message) ([]*message.Message, error) {
	return msgs, nil
}

func (p *fakePlugin) sendCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sends)
}

// fixture binds a gateway definition to a fake plugin with caps.
type fixture struct {
	def  gateway.Definition
	caps gateway.Capabilities
}

// newRegistry loads the fixtures into a registry and returns their plugins
// keyed by gateway id.
func newRegistry(t *testing.T, fallback string, fixtures ...fixture) (*gateway.Registry, map[string]*fakePlugin) {
	t.Helper()
	reg := gateway.NewRegistry()
	plugins := map[string]*fakePlugin{}
	defs := make([]gateway.Definition, 0, len(fixtures))
	for _, f := range fixtures {
		p := &fakePlugin{caps: f.caps}
		plugins[f.def.ID] = p
		reg.RegisterPlugin("fake-"+f.def.ID, func(map[string]string) (gateway.Plugin, error) { return p, nil })
		def := f.def
		def.Plugin = "fake-" + def.ID
		defs = append(defs, def)
	}
	require.NoError(t, reg.Load(defs, fallback))
	return reg, plugins
}

// memMessages is an in-memory message.Repository.
type memMessages struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*message.Message
	results map[uuid.UUID]*message.Result
}

func newMemMessages() *memMessages {
	return &memMessages{
		items:   map[uuid.UUID]*message.Message{},
		results: map[uuid.UUID]*message.Result{},
	}
}

func (r *memMessages) Save(_ context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[m.UUID] = m.Clone()
	return nil
}

func (r *memMessages) Get(_ context.Context, id uuid.UUID) (*message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, message.ErrNotFound
	}
	c := m.Clone()
	c.Result = r.results[id]
	return c, nil
}

func (r *memMessages) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return message.ErrNotFound
	}
	delete(r.items, id)
	delete(r.results, id)
	return nil
}

func (r *memMessages) FindUnqueued(_ context.Context, gatewayID string, dueBefore *time.Time, limit int) ([]*message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*message.Message
	for _, m := range r.items {
		if m.GatewayID != gatewayID || m.Queued || m.ProcessedAt != nil {
			continue
		}
		if dueBefore != nil && m.SendTime.After(*dueBefore) {
			continue
		}
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMessages) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok || m.Queued {
		return false, nil
	}
	m.Queued = true
	return true, nil
}

func (r *memMessages) Release(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.items[id]; ok {
		m.Queued = false
	}
	return nil
}

func (r *memMessages) MarkProcessed(_ context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[m.UUID]
	if !ok {
		return message.ErrNotFound
	}
	stored.ProcessedAt = m.ProcessedAt
	stored.Queued = false
	return nil
}

func (r *memMessages) SaveResult(_ context.Context, id uuid.UUID, res *message.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return message.ErrStorage
	}
	r.results[id] = res
	return nil
}

func (r *memMessages) DeleteProcessed(_ context.Context, gatewayID string, dir message.Direction, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.items {
		if m.GatewayID == gatewayID && m.Direction == dir && !m.Queued &&
			m.ProcessedAt != nil && m.ProcessedAt.Before(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *memMessages) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *memMessages) all() []*message.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*message.Message, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, m.Clone())
	}
	return out
}

// memReports is an in-memory message.ReportRepository.
type memReports struct {
	mu     sync.Mutex
	nextID int64
	items  map[string]*message.DeliveryReport
	links  map[string]uuid.UUID
	order  []string
}

func newMemReports() *memReports {
	return &memReports{items: map[string]*message.DeliveryReport{}, links: map[string]uuid.UUID{}}
}

func reportKey(messageID, recipient string) string { return messageID + "|" + recipient }

func (r *memReports) Append(_ context.Context, messageUUID *uuid.UUID, rep *message.DeliveryReport) (message.Revision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reportKey(rep.MessageID, rep.Recipient)
	cur, ok := r.items[key]
	if !ok {
		cur = &message.DeliveryReport{MessageID: rep.MessageID, Recipient: rep.Recipient, GatewayID: rep.GatewayID}
		r.items[key] = cur
		r.order = append(r.order, key)
	}
	if messageUUID != nil {
		r.links[key] = *messageUUID
	}
	r.nextID++
	rev := message.Revision{ID: r.nextID, Status: rep.Status, StatusMessage: rep.StatusMessage, StatusTime: rep.StatusTime}
	cur.Append(rev)
	return rev, nil
}

func (r *memReports) Find(_ context.Context, messageID, recipient string) (*message.DeliveryReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.items[reportKey(messageID, recipient)]
	if !ok {
		return nil, message.ErrNotFound
	}
	return rep, nil
}

func (r *memReports) RevisionAtStatus(ctx context.Context, messageID, recipient string, status message.Status) (message.Revision, bool, error) {
	rep, err := r.Find(ctx, messageID, recipient)
	if err != nil {
		return message.Revision{}, false, err
	}
	rev, ok := rep.RevisionAtStatus(status)
	return rev, ok, nil
}

func (r *memReports) ForMessage(_ context.Context, id uuid.UUID) ([]*message.DeliveryReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*message.DeliveryReport
	for _, key := range r.order {
		if link, ok := r.links[key]; ok && link == id {
			out = append(out, r.items[key])
		}
	}
	return out, nil
}

// memQueue is an in-memory queue.Queue.
type memQueue struct {
	mu      sync.Mutex
	items   []queue.Item
	pushErr error
}

func (q *memQueue) Push(_ context.Context, item queue.Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pushErr != nil {
		return q.pushErr
	}
	q.items = append(q.items, item)
	return nil
}

func (q *memQueue) Pop(context.Context, time.Duration) (*queue.Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, nil
	}
	it := q.items[0]
	q.items = q.items[1:]
	return &it, nil
}

func (q *memQueue) TryPop(ctx context.Context) (*queue.Item, error) {
	return q.Pop(ctx, 0)
}

func (q *memQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

// memOwners is an in-memory owner.Store.
type memOwners struct {
	mu     sync.Mutex
	owners map[string]*owner.Owner
}

func (s *memOwners) Load(_ context.Context, id string) (*owner.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[id]
	if !ok {
		return nil, owner.ErrNotFound
	}
	c := *o
	c.PhoneNumbers = slices.Clone(o.PhoneNumbers)
	return &c, nil
}

func (s *memOwners) RemovePhoneNumber(_ context.Context, id, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[id]
	if !ok {
		return owner.ErrNotFound
	}
	o.PhoneNumbers = slices.DeleteFunc(o.PhoneNumbers, func(p string) bool { return p == phone })
	return nil
}

// memVerifications is an in-memory verification.Repository.
type memVerifications struct {
	mu     sync.Mutex
	nextID uint
	items  map[uint]verification.Verification
}

func newMemVerifications() *memVerifications {
	return &memVerifications{items: map[uint]verification.Verification{}}
}

func (r *memVerifications) Create(_ context.Context, v *verification.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	v.ID = r.nextID
	r.items[v.ID] = *v
	return nil
}

func (r *memVerifications) filter(keep func(verification.Verification) bool) []*verification.Verification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*verification.Verification
	for _, v := range r.items {
		if keep(v) {
			c := v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memVerifications) FindUnverifiedByCode(_ context.Context, code string) (*verification.Verification, error) {
	out := r.filter(func(v verification.Verification) bool { return !v.Status && v.Code == code })
	if len(out) == 0 {
		return nil, verification.ErrNotFound
	}
	return out[0], nil
}

func (r *memVerifications) FindByOwner(_ context.Context, ref owner.Ref) ([]*verification.Verification, error) {
	return r.filter(func(v verification.Verification) bool { return v.Owner == ref }), nil
}

func (r *memVerifications) FindByPhone(_ context.Context, phone string, status *bool) ([]*verification.Verification, error) {
	return r.filter(func(v verification.Verification) bool {
		return v.PhoneNumber == phone && (status == nil || v.Status == *status)
	}), nil
}

func (r *memVerifications) FindUnverifiedCreatedBefore(_ context.Context, ownerType string, cutoff time.Time) ([]*verification.Verification, error) {
	return r.filter(func(v verification.Verification) bool {
		return !v.Status && v.Owner.Type == ownerType && v.CreatedAt.Before(cutoff)
	}), nil
}

func (r *memVerifications) Update(_ context.Context, v *verification.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[v.ID]; !ok {
		return verification.ErrNotFound
	}
	r.items[v.ID] = *v
	return nil
}

func (r *memVerifications) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *memVerifications) get(id uint) (verification.Verification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	return v, ok
}

// recordingQueuer captures messages queued by the verification service.
type recordingQueuer struct {
	mu   sync.Mutex
	msgs []*message.Message
	err  error
}

func (q *recordingQueuer) Queue(_ context.Context, m *message.Message) ([]*message.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.msgs = append(q.msgs, m)
	return []*message.Message{m}, nil
}

// newTestCache returns a miniredis-backed cache.
func newTestCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cacheredis.NewFromClient(rdb), mr
}

var errBoom = errors.New("boom")
