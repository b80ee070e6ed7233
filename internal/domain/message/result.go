package message

import (
	"fmt"
	"slices"
	"time"
)

// Status is the normalized delivery status of a single recipient.
type Status string

const (
	StatusQueued           Status = "queued"
	StatusPending          Status = "pending"
	StatusDelivered        Status = "delivered"
	StatusExpired          Status = "expired"
	StatusRejected         Status = "rejected"
	StatusInvalidRecipient Status = "invalid_recipient"
	StatusContentInvalid   Status = "content_invalid"
	StatusError            Status = "error"
)

var knownStatuses = []Status{
	StatusQueued, StatusPending, StatusDelivered, StatusExpired,
	StatusRejected, StatusInvalidRecipient, StatusContentInvalid, StatusError,
}

// ParseStatus maps a raw status string onto a known Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !slices.Contains(knownStatuses, st) {
		return "", fmt.Errorf("unknown delivery status %q", s)
	}
	return st, nil
}

// Result is what a gateway returns for a send or incoming call.
type Result struct {
	ErrorCode      string
	ErrorMessage   string
	CreditsBalance *float64
	CreditsUsed    *float64
	Reports        []*DeliveryReport
}

// Failed reports whether the gateway flagged the whole call as failed.
func (r *Result) Failed() bool {
	return r.ErrorCode != "" || r.ErrorMessage != ""
}

// Report returns the report for recipient, or nil.
func (r *Result) Report(recipient string) *DeliveryReport {
	for _, rep := range r.Reports {
		if rep.Recipient == recipient {
			return rep
		}
	}
	return nil
}

// MergeResults folds the results of chunked sub-messages into one. The first
// error wins; credits used are summed and the last known balance is kept.
func MergeResults(results ...*Result) *Result {
	out := &Result{}
	for _, r := range results {
		if r == nil {
			continue
		}
		if !out.Failed() && r.Failed() {
			out.ErrorCode = r.ErrorCode
			out.ErrorMessage = r.ErrorMessage
		}
		if r.CreditsUsed != nil {
			used := *r.CreditsUsed
			if out.CreditsUsed != nil {
				used += *out.CreditsUsed
			}
			out.CreditsUsed = &used
		}
		if r.CreditsBalance != nil {
			b := *r.CreditsBalance
			out.CreditsBalance = &b
		}
		out.Reports = append(out.Reports, r.Reports...)
	}
	return out
}

// DeliveredResult is the result of an incoming message: one delivered
// report per recipient, keyed by the message's own UUID.
func DeliveredResult(m *Message, at time.Time) *Result {
	res := &Result{}
	for _, rcpt := range m.Recipients {
		res.Reports = append(res.Reports, &DeliveryReport{
			MessageID:  m.UUID.String(),
			Recipient:  rcpt,
			Status:     StatusDelivered,
			StatusTime: at,
		})
	}
	return res
}

// CheckIntegrity verifies that a completed message carries a result and,
// unless the gateway failed the whole call, one report per recipient.
func CheckIntegrity(m *Message) error {
	if m.Result == nil {
		return fmt.Errorf("%w: message %s has no result", ErrReportIntegrity, m.UUID)
	}
	if m.Result.Failed() {
		return nil
	}
	for _, rcpt := range m.Recipients {
		if m.Result.Report(rcpt) == nil {
			return fmt.Errorf("%w: message %s is missing a report for %s", ErrReportIntegrity, m.UUID, rcpt)
		}
	}
	return nil
}

// DeliveryReport is the per-recipient delivery status of a message, keyed by
// the gateway-assigned message id and the recipient.
//
// Status, StatusMessage and StatusTime mirror the most recently applied
// revision. Revisions holds the full append-only history, oldest first.
type DeliveryReport struct {
	MessageID     string
	Recipient     string
	GatewayID     string
	Status        Status
	StatusMessage string
	StatusTime    time.Time

	Revisions []Revision
}

// Revision is an immutable snapshot of a report. IDs increase monotonically
// in the order revisions are applied.
type Revision struct {
	ID            int64
	Status        Status
	StatusMessage string
	StatusTime    time.Time
}

// Append records a new revision and refreshes the current view.
func (r *DeliveryReport) Append(rev Revision) {
	if rev.ID == 0 {
		rev.ID = 1
		if n := len(r.Revisions); n > 0 {
			rev.ID = r.Revisions[n-1].ID + 1
		}
	}
	r.Revisions = append(r.Revisions, rev)
	r.Status = rev.Status
	r.StatusMessage = rev.StatusMessage
	r.StatusTime = rev.StatusTime
}

// RevisionAtStatus returns the revision carrying status with the latest
// status time. Ties on status time go to the last applied revision.
func (r *DeliveryReport) RevisionAtStatus(status Status) (Revision, bool) {
	return RevisionAtStatus(r.Revisions, status)
}

// TimeQueued returns when the report last entered the queued status.
func (r *DeliveryReport) TimeQueued() (time.Time, bool) {
	rev, ok := r.RevisionAtStatus(StatusQueued)
	return rev.StatusTime, ok
}

// TimeDelivered returns when the report last entered the delivered status.
func (r *DeliveryReport) TimeDelivered() (time.Time, bool) {
	rev, ok := r.RevisionAtStatus(StatusDelivered)
	return rev.StatusTime, ok
}

// RevisionAtStatus picks, among revs carrying status, the one with the
// maximum status time; equal times resolve to the highest revision id.
func RevisionAtStatus(revs []Revision, status Status) (Revision, bool) {
	var (
		best  Revision
		found bool
	)
	for _, rev := range revs {
		if rev.Status != status {
			continue
		}
		if !found || rev.StatusTime.After(best.StatusTime) ||
			(rev.StatusTime.Equal(best.StatusTime) && rev.ID > best.ID) {
			best = rev
			found = true
		}
	}
	return best, found
}
