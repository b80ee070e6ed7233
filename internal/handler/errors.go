package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/oggyb/sms-framework/internal/domain/gateway"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/domain/owner"
	"github.com/oggyb/sms-framework/internal/domain/user"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"github.com/oggyb/sms-framework/internal/response"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, message.ErrNotFound),
		errors.Is(err, verification.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, owner.ErrNotFound),
		errors.Is(err, gateway.ErrUnknownGateway):
		return http.StatusNotFound
	case errors.Is(err, verification.ErrFloodControl):
		return http.StatusTooManyRequests
	case errors.Is(err, verification.ErrExpired):
		return http.StatusGone
	case errors.Is(err, message.ErrDirection),
		errors.Is(err, message.ErrRecipientRoute),
		errors.Is(err, message.ErrValidation),
		errors.Is(err, verification.ErrSettings),
		errors.Is(err, owner.ErrUnknownType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes err with its mapped status. Internal errors are logged
// and hidden from the client.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", r.Method, r.URL.Path, err)
		response.RespondError(w, status, "internal error")
		return
	}
	response.RespondError(w, status, err.Error())
}
