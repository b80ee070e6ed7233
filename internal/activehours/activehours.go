// Package activehours decides whether automated messages may be delivered
// to a recipient right now, and when the next permitted window opens.
//
// Ranges are stored as recurrence expressions and resolved against the
// recipient's timezone on every query.
package activehours

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/domain/owner"
)

// Range is a recurring window such as {"monday 09:00", "monday 17:00"} or
// {"day 09:00", "+8h"}.
type Range struct {
	Start string
	End   string
}

// Window is a range resolved to absolute instants in a timezone.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

type parsedRange struct {
	start expr
	end   expr
}

// OwnerLoader resolves the entity a message is addressed to.
type OwnerLoader interface {
	Load(ctx context.Context, ref owner.Ref) (*owner.Owner, error)
}

// Scheduler evaluates active hours for owners.
type Scheduler struct {
	enabled     bool
	ranges      []parsedRange
	owners      OwnerLoader
	defaultZone *time.Location
}

// New builds a scheduler. Owners without a timezone are evaluated in
// defaultZone (UTC when nil).
func New(enabled bool, ranges []Range, owners OwnerLoader, defaultZone *time.Location) (*Scheduler, error) {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	s := &Scheduler{enabled: enabled, owners: owners, defaultZone: defaultZone}
	for i, r := range ranges {
		start, err := parseExpr(r.Start, false)
		if err != nil {
			return nil, fmt.Errorf("active hours range %d start: %w", i, err)
		}
		end, err := parseExpr(r.End, true)
		if err != nil {
			return nil, fmt.Errorf("active hours range %d end: %w", i, err)
		}
		s.ranges = append(s.ranges, parsedRange{start: start, end: end})
	}
	return s, nil
}

// Enabled reports whether active hours are enforced.
func (s *Scheduler) Enabled() bool {
	return s.enabled
}

func (pr parsedRange) endFor(start time.Time) time.Time {
	if pr.end.relative {
		return start.Add(pr.end.offset)
	}
	return pr.end.onOrAfter(start)
}

// resolve returns the occurrence of pr that is active at now, or else the
// next one to open.
func (pr parsedRange) resolve(now time.Time) Window {
	start := pr.start.thisPeriod(now)
	period := pr.start.periodDays()

	if prev := start.AddDate(0, 0, -period); !pr.endFor(prev).Before(now) {
		return Window{Start: prev, End: pr.endFor(prev)}
	}
	if end := pr.endFor(start); end.Before(now) {
		start = start.AddDate(0, 0, period)
	}
	return Window{Start: start, End: pr.endFor(start)}
}

// Windows resolves every range at now in loc, sorted by start.
func (s *Scheduler) Windows(now time.Time, loc *time.Location) []Window {
	if loc == nil {
		loc = s.defaultZone
	}
	local := now.In(loc)

	out := make([]Window, 0, len(s.ranges))
	for _, pr := range s.ranges {
		out = append(out, pr.resolve(local))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (s *Scheduler) location(ctx context.Context, ref owner.Ref) (*time.Location, error) {
	o, err := s.owners.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if o.Timezone == nil {
		return s.defaultZone, nil
	}
	return o.Timezone, nil
}

// InHoursAt reports whether now falls in any window when resolved in loc.
// Disabled schedulers are always in hours.
func (s *Scheduler) InHoursAt(now time.Time, loc *time.Location) bool {
	if !s.enabled {
		return true
	}
	for _, w := range s.Windows(now, loc) {
		if w.Contains(now) {
			return true
		}
	}
	return false
}

// InHours reports whether now is within the owner's active hours.
func (s *Scheduler) InHours(ctx context.Context, ref owner.Ref, now time.Time) (bool, error) {
	if !s.enabled {
		return true, nil
	}
	loc, err := s.location(ctx, ref)
	if err != nil {
		return false, err
	}
	return s.InHoursAt(now, loc), nil
}

// NextWindowAt returns the first window, by start, whose end has not passed.
// A window containing now is returned as is.
func (s *Scheduler) NextWindowAt(now time.Time, loc *time.Location) (Window, bool) {
	for _, w := range s.Windows(now, loc) {
		if !w.End.Before(now) {
			return w, true
		}
	}
	return Window{}, false
}

// FindNextTime returns the owner's next (or current) active window.
func (s *Scheduler) FindNextTime(ctx context.Context, ref owner.Ref, now time.Time) (Window, bool, error) {
	loc, err := s.location(ctx, ref)
	if err != nil {
		return Window{}, false, err
	}
	w, ok := s.NextWindowAt(now, loc)
	return w, ok, nil
}

// DelayMessage pushes the send time of an automated outgoing message to the
// start of the recipient's next active window when it would otherwise be
// delivered out of hours. Messages without a timezone-aware recipient
// entity are left alone.
func (s *Scheduler) DelayMessage(ctx context.Context, m *message.Message) error {
	if !s.enabled || !m.Automated || m.Direction != message.DirectionOutgoing || m.RecipientOwner == nil {
		return nil
	}

	o, err := s.owners.Load(ctx, *m.RecipientOwner)
	if err != nil {
		if errors.Is(err, owner.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("active hours: load recipient %s: %w", m.RecipientOwner, err)
	}
	if o.Timezone == nil {
		return nil
	}

	now := m.SendTime
	if now.IsZero() {
		now = time.Now()
	}
	if s.InHoursAt(now, o.Timezone) {
		return nil
	}

	w, ok := s.NextWindowAt(now, o.Timezone)
	if !ok {
		return nil
	}
	log.Printf("[ActiveHours] Delaying message %s for %s until %s",
		m.UUID, m.RecipientOwner, w.Start.Format(time.RFC3339))
	m.SendTime = w.Start
	return nil
}
