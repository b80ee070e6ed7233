package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/oggyb/sms-framework/internal/domain/owner"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"github.com/oggyb/sms-framework/internal/request"
	"github.com/oggyb/sms-framework/internal/response"
)

// VerificationService issues and confirms phone verification codes.
type VerificationService interface {
	NewPhoneVerification(ctx context.Context, ref owner.Ref, phone string) (*verification.Verification, error)
	Verify(ctx context.Context, code, identifier string) (*verification.Verification, error)
	VerificationByPhone(ctx context.Context, phone string, status *bool) ([]*verification.Verification, error)
}

type VerificationHandler struct {
	svc VerificationService
}

func NewVerificationHandler(svc VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// Create godoc
// @Summary     Start a phone verification
// @Description Sends a verification code to the phone number on behalf of its owner.
// @Tags        verifications
// @Accept      json
// @Produce     json
// @Param       request body request.NewVerificationRequest true "Owner and phone"
// @Success     201 {object} response.VerificationResponse
// @Failure     400 {object} map[string]string
// @Failure     404 {object} map[string]string
// @Router      /verifications [post]
func (h *VerificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.NewVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	phone := strings.TrimSpace(req.PhoneNumber)
	if req.OwnerType == "" || req.OwnerID == "" || phone == "" {
		response.RespondError(w, http.StatusBadRequest, "ownerType, ownerId and phoneNumber are required")
		return
	}

	v, err := h.svc.NewPhoneVerification(r.Context(), owner.Ref{Type: req.OwnerType, ID: req.OwnerID}, phone)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	response.RespondJSON(w, http.StatusCreated, response.FromDomainVerification(v))
}

// Verify godoc
// @Summary     Confirm a verification code
// @Description Marks the matching phone number verified. Attempts are flood controlled per client address.
// @Tags        verifications
// @Accept      json
// @Produce     json
// @Param       request body request.VerifyRequest true "Code"
// @Success     200 {object} response.VerificationResponse
// @Failure     400 {object} map[string]string
// @Failure     404 {object} map[string]string
// @Failure     410 {object} map[string]string
// @Failure     429 {object} map[string]string
// @Router      /verifications/verify [post]
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		response.RespondError(w, http.StatusBadRequest, "code is required")
		return
	}

	v, err := h.svc.Verify(r.Context(), code, clientIP(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, response.FromDomainVerification(v))
}

// List godoc
// @Summary     Verifications of a phone number
// @Description Lists the verification records of a phone number, optionally only verified or unverified ones.
// @Tags        verifications
// @Produce     json
// @Param       phone  query string true  "Phone number"
// @Param       status query bool   false "Verified filter"
// @Success     200 {object} response.VerificationsResponse
// @Failure     400 {object} map[string]string
// @Router      /verifications [get]
func (h *VerificationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	phone := strings.TrimSpace(q.Get("phone"))
	if phone == "" {
		response.RespondError(w, http.StatusBadRequest, "phone is required")
		return
	}

	var status *bool
	if raw := q.Get("status"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, errInvalidField("status", "must be true or false").Error())
			return
		}
		status = &b
	}

	vs, err := h.svc.VerificationByPhone(r.Context(), phone, status)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	response.RespondJSON(w, http.StatusOK, response.FromDomainVerifications(vs))
}
