package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/cache"
	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
)

// Reconciler records delivery report revisions pushed by gateways and
// answers status-history queries.
type Reconciler struct {
	gateways *gateway.Registry
	reports  message.ReportRepository
	cache    cache.Cache
}

// NewReconciler creates a reconciler. cache may be nil.
func NewReconciler(gateways *gateway.Registry, reports message.ReportRepository, c cache.Cache) *Reconciler {
	return &Reconciler{gateways: gateways, reports: reports, cache: c}
}

// ProcessDeliveryReport lets the gateway's plugin parse req and appends
// every report it returns as a new revision. The parsed reports are
// returned with their applied revision attached.
func (r *Reconciler) ProcessDeliveryReport(ctx context.Context, req *http.Request, gatewayID string) ([]*message.DeliveryReport, error) {
	g, err := r.gateways.Get(gatewayID)
	if err != nil {
		return nil, err
	}
	parser, ok := g.Plugin().(gateway.ReportParser)
	if !ok || !g.Capabilities().SupportsReportsPush {
		return nil, fmt.Errorf("%w: gateway %s does not accept delivery reports", message.ErrValidation, g.ID)
	}

	reports, err := parser.ParseDeliveryReports(req)
	if err != nil {
		return nil, fmt.Errorf("%w: gateway %s: %v", message.ErrValidation, g.ID, err)
	}

	for _, rep := range reports {
		rep.GatewayID = g.ID
		rev, err := r.reports.Append(ctx, r.messageUUID(ctx, g.ID, rep.MessageID), rep)
		if err != nil {
			return nil, fmt.Errorf("append report %s/%s: %w", rep.MessageID, rep.Recipient, err)
		}
		rep.Revisions = append(rep.Revisions, rev)
	}

	log.Printf("[Reports] Applied %d delivery report(s) from %s", len(reports), g.ID)
	return reports, nil
}

// messageUUID maps a gateway message id back to the stored message when the
// mapping is still cached.
func (r *Reconciler) messageUUID(ctx context.Context, gatewayID, messageID string) *uuid.UUID {
	if r.cache == nil {
		return nil
	}
	raw, err := r.cache.Get(ctx, cache.GatewayMessages.Key(gatewayID+":"+messageID))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			log.Printf("[Reports] Cache lookup for %s failed: %v", messageID, err)
		}
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// Report returns the full revision history of a report.
func (r *Reconciler) Report(ctx context.Context, messageID, recipient string) (*message.DeliveryReport, error) {
	return r.reports.Find(ctx, messageID, recipient)
}

// ReportsForMessage returns every report linked to a stored message.
func (r *Reconciler) ReportsForMessage(ctx context.Context, id uuid.UUID) ([]*message.DeliveryReport, error) {
	return r.reports.ForMessage(ctx, id)
}

// RevisionAtStatus returns the revision of a report carrying status with the
// latest status time.
func (r *Reconciler) RevisionAtStatus(ctx context.Context, messageID, recipient string, status message.Status) (message.Revision, bool, error) {
	return r.reports.RevisionAtStatus(ctx, messageID, recipient, status)
}

// TimeQueued returns when the report last entered the queued status.
func (r *Reconciler) TimeQueued(ctx context.Context, messageID, recipient string) (time.Time, bool, error) {
	rev, ok, err := r.RevisionAtStatus(ctx, messageID, recipient, message.StatusQueued)
	return rev.StatusTime, ok, err
}

// TimeDelivered returns when the report last entered the delivered status.
func (r *Reconciler) TimeDelivered(ctx context.Context, messageID, recipient string) (time.Time, bool, error) {
	rev, ok, err := r.RevisionAtStatus(ctx, messageID, recipient, message.StatusDelivered)
	return rev.StatusTime, ok, err
}
