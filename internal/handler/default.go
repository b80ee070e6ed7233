package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/response"
)

// healthTimeout bounds each dependency check.
const healthTimeout = 2 * time.Second

// Pinger is a dependency the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// GatewayChecks returns a check named "gateway:<id>" for every gateway whose
// plugin can report its own health.
func GatewayChecks(reg *gateway.Registry) map[string]Pinger {
	checks := map[string]Pinger{}
	for _, g := range reg.All() {
		if hc, ok := g.Plugin().(gateway.HealthChecker); ok {
			checks["gateway:"+g.ID] = PingFunc(hc.Health)
		}
	}
	return checks
}

// HomeHandler serves the root and health endpoints.
type HomeHandler struct {
	checks map[string]Pinger
}

// NewHomeHandler returns a HomeHandler checking the named dependencies.
func NewHomeHandler(checks map[string]Pinger) *HomeHandler {
	return &HomeHandler{checks: checks}
}

// Index godoc
// @Summary     Welcome endpoint
// @Description Simple root endpoint that returns a welcome message.
// @Tags        home
// @Produce     json
// @Success     200 {object} response.WelcomeResponse
// @Router      / [get]
func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	response.RespondJSON(w, http.StatusOK, response.WelcomePayload{Message: "SMS framework API"})
}

// Health godoc
// @Summary     Health check
// @Description Pings the database, Redis and gateways that support health checks. Answers 503 when one of them is down.
// @Tags        home
// @Produce     json
// @Success     200 {object} response.HealthResponse
// @Failure     503 {object} response.HealthResponse
// @Router      /health [get]
func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	payload := response.HealthPayload{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := h.checks[name].Ping(ctx)
		cancel()
		if err != nil {
			payload.Checks[name] = err.Error()
			payload.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		payload.Checks[name] = "ok"
	}

	response.RespondJSON(w, status, payload)
}
