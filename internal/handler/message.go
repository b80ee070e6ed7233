package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/domain/owner"
	"github.com/oggyb/sms-framework/internal/domain/user"
	"github.com/oggyb/sms-framework/internal/request"
	"github.com/oggyb/sms-framework/internal/response"
	"github.com/oggyb/sms-framework/internal/scheduler"
)

// MessageService queues and loads messages.
type MessageService interface {
	Queue(ctx context.Context, m *message.Message) ([]*message.Message, error)
	Get(ctx context.Context, id uuid.UUID) (*message.Message, error)
}

// ReportService answers delivery report queries.
type ReportService interface {
	ReportsForMessage(ctx context.Context, id uuid.UUID) ([]*message.DeliveryReport, error)
}

// MessageHandler wires HTTP endpoints to the message service
// and the maintenance scheduler.
type MessageHandler struct {
	msgSvc    MessageService
	reportSvc ReportService
	schSvc    scheduler.SchedulerService
}

// NewMessageHandler constructs a new MessageHandler with its dependencies.
func NewMessageHandler(msgSvc MessageService, reportSvc ReportService, schSvc scheduler.SchedulerService) *MessageHandler {
	return &MessageHandler{
		msgSvc:    msgSvc,
		reportSvc: reportSvc,
		schSvc:    schSvc,
	}
}

// StartStopScheduler godoc
// @Summary     Control scheduler
// @Description Starts or stops the maintenance scheduler, or runs a single tick right away.
// @Tags        scheduler
// @Accept      json
// @Produce     json
// @Param       request body request.SchedulerRequest true "Scheduler action (start|stop|run)"
// @Success     200 {object} response.SchedulerControlResponse
// @Success     202 {object} response.SchedulerControlResponse
// @Failure     409 {object} map[string]string
// @Failure     400 {object} map[string]string
// @Router      /scheduler [post]
func (h *MessageHandler) StartStopScheduler(w http.ResponseWriter, r *http.Request) {
	var req request.SchedulerRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Action {
	case "start":
		if err := h.schSvc.Start(); err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.RespondJSON(w, http.StatusOK, response.SchedulerControlPayload{Message: "scheduler started"})

	case "stop":
		if err := h.schSvc.Stop(); err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.RespondJSON(w, http.StatusOK, response.SchedulerControlPayload{Message: "scheduler stopped"})

	case "run":
		err := h.schSvc.RunNow()
		if errors.Is(err, scheduler.ErrBusy) {
			response.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.RespondJSON(w, http.StatusAccepted, response.SchedulerControlPayload{Message: "maintenance tick triggered"})

	default:
		response.RespondError(w, http.StatusBadRequest, "action must be 'start', 'stop' or 'run'")
	}
}

// SchedulerStatus godoc
// @Summary     Scheduler status
// @Description Reports whether the scheduler runs and how its ticks went.
// @Tags        scheduler
// @Produce     json
// @Success     200 {object} response.SchedulerStatusResponse
// @Failure     503 {object} map[string]string
// @Router      /scheduler [get]
func (h *MessageHandler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.schSvc.Status()
	if err != nil {
		response.RespondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, response.FromSchedulerStatus(st))
}

// QueueMessage godoc
// @Summary     Queue an outgoing message
// @Description Routes the message to a gateway and stores it for the worker, or sends it at once for skip-queue gateways.
// @Tags        messages
// @Accept      json
// @Produce     json
// @Param       request body request.QueueMessageRequest true "Message"
// @Success     202 {object} response.MessagesResponse
// @Failure     400 {object} map[string]string
// @Router      /messages [post]
func (h *MessageHandler) QueueMessage(w http.ResponseWriter, r *http.Request) {
	var req request.QueueMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	m, err := newOutgoing(req)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.msgSvc.Queue(r.Context(), m)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusAccepted, response.FromDomainMessages(out))
}

// newOutgoing builds an outgoing message from the request. Options with a
// leading underscore are internal and dropped.
func newOutgoing(req request.QueueMessageRequest) (*message.Message, error) {
	m := message.New(req.Body, req.Recipients...)
	m.Direction = message.DirectionOutgoing
	m.SenderName = req.SenderName
	m.SenderNumber = req.SenderNumber
	m.GatewayID = req.Gateway
	if req.Automated != nil {
		m.Automated = *req.Automated
	}
	if req.SendTime != "" {
		t, err := time.Parse(time.RFC3339, req.SendTime)
		if err != nil {
			return nil, errInvalidField("sendTime", "must be RFC3339")
		}
		m.SendTime = t.UTC()
	}
	for k, v := range req.Options {
		if strings.HasPrefix(k, "_") {
			continue
		}
		m.SetOption(k, v)
	}
	if req.RecipientUser != "" {
		m.RecipientOwner = &owner.Ref{Type: user.OwnerType, ID: req.RecipientUser}
	}
	return m, nil
}

// GetMessage godoc
// @Summary     Get a message
// @Description Returns a stored message with its result, if processed.
// @Tags        messages
// @Produce     json
// @Param       id path string true "Message UUID"
// @Success     200 {object} response.MessageResponse
// @Failure     400 {object} map[string]string
// @Failure     404 {object} map[string]string
// @Router      /messages/{id} [get]
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	m, err := h.msgSvc.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.FromDomainMessage(m))
}

// GetMessageReports godoc
// @Summary     Delivery reports of a message
// @Description Returns every delivery report linked to the message, with its revision history.
// @Tags        messages
// @Produce     json
// @Param       id path string true "Message UUID"
// @Success     200 {object} response.ReportsResponse
// @Failure     400 {object} map[string]string
// @Router      /messages/{id}/reports [get]
func (h *MessageHandler) GetMessageReports(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	reports, err := h.reportSvc.ReportsForMessage(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.FromDomainReports(reports))
}
