package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/response"
)

// ReportReceiver applies delivery reports pushed by a gateway.
type ReportReceiver interface {
	ProcessDeliveryReport(ctx context.Context, r *http.Request, gatewayID string) ([]*message.DeliveryReport, error)
}

// IncomingReceiver accepts incoming messages pushed by a gateway.
type IncomingReceiver interface {
	ReceiveIncoming(ctx context.Context, r *http.Request, gatewayID string) (int, error)
}

// GatewayHandler serves the gateway callbacks and gateway inspection.
type GatewayHandler struct {
	gateways *gateway.Registry
	reports  ReportReceiver
	incoming IncomingReceiver
}

func NewGatewayHandler(gateways *gateway.Registry, reports ReportReceiver, incoming IncomingReceiver) *GatewayHandler {
	return &GatewayHandler{gateways: gateways, reports: reports, incoming: incoming}
}

// ReceiveDeliveryReport godoc
// @Summary     Delivery report push
// @Description Gateways push delivery status updates here. Each report is stored as a new revision.
// @Tags        gateways
// @Accept      json
// @Produce     json
// @Param       gateway path string true "Gateway id"
// @Param       request body request.DeliveryReportPush true "Reports"
// @Success     200 {object} response.ReportsAcceptedResponse
// @Failure     400 {object} map[string]string
// @Failure     404 {object} map[string]string
// @Router      /sms/delivery-report/receive/{gateway} [post]
func (h *GatewayHandler) ReceiveDeliveryReport(w http.ResponseWriter, r *http.Request) {
	applied, err := h.reports.ProcessDeliveryReport(r.Context(), r, r.PathValue("gateway"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, response.ReportsAcceptedPayload{Applied: len(applied)})
}

// ReceiveIncoming godoc
// @Summary     Incoming message push
// @Description Gateways push received messages here; they are queued as incoming messages.
// @Tags        gateways
// @Accept      json
// @Param       gateway path string true "Gateway id"
// @Param       request body request.IncomingPush true "Messages"
// @Success     204
// @Failure     400 {object} map[string]string
// @Failure     404 {object} map[string]string
// @Router      /sms/incoming/receive/{gateway} [post]
func (h *GatewayHandler) ReceiveIncoming(w http.ResponseWriter, r *http.Request) {
	if _, err := h.incoming.ReceiveIncoming(r.Context(), r, r.PathValue("gateway")); err != nil {
		respondErr(w, r, err)
		return
	}
	response.RespondEmpty(w, http.StatusNoContent)
}

// ListGateways godoc
// @Summary     List gateways
// @Description Returns the configured gateways in configuration order.
// @Tags        gateways
// @Produce     json
// @Success     200 {object} response.GatewaysResponse
// @Router      /gateways [get]
func (h *GatewayHandler) ListGateways(w http.ResponseWriter, r *http.Request) {
	response.RespondJSON(w, http.StatusOK, response.FromDomainGateways(h.gateways.All()))
}

// Balance godoc
// @Summary     Gateway credit balance
// @Description Queries the gateway for its remaining credits.
// @Tags        gateways
// @Produce     json
// @Param       id path string true "Gateway id"
// @Success     200 {object} response.BalanceResponse
// @Failure     400 {object} map[string]string
// @Failure     404 {object} map[string]string
// @Failure     502 {object} map[string]string
// @Router      /gateways/{id}/balance [get]
func (h *GatewayHandler) Balance(w http.ResponseWriter, r *http.Request) {
	g, err := h.gateways.Get(r.PathValue("id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}

	balancer, ok := g.Plugin().(gateway.CreditBalancer)
	if !ok || !g.Capabilities().SupportsCreditBalanceQuery {
		response.RespondError(w, http.StatusBadRequest, fmt.Sprintf("gateway %s does not report a credit balance", g.ID))
		return
	}

	balance, err := balancer.CreditBalance(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, response.BalancePayload{Gateway: g.ID, Balance: balance})
}
