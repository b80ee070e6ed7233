package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/owner"
	"github.com/oggyb/sms-framework/internal/domain/user"
	"github.com/oggyb/sms-framework/internal/domain/verification"
	"github.com/oggyb/sms-framework/internal/request"
	"github.com/oggyb/sms-framework/internal/response"
)

// OwnerSyncer brings verification records in line with an owner's numbers.
type OwnerSyncer interface {
	UpdateByOwner(ctx context.Context, ref owner.Ref) error
}

type UserHandler struct {
	users user.Repository
	sync  OwnerSyncer
}

func NewUserHandler(users user.Repository, sync OwnerSyncer) *UserHandler {
	return &UserHandler{users: users, sync: sync}
}

// Upsert godoc
// @Summary     Create or update a user
// @Description Stores the user and starts verification for newly added phone numbers.
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       id      path string                    true "User id"
// @Param       request body request.UpsertUserRequest true "User"
// @Success     200 {object} response.UserResponse
// @Failure     400 {object} map[string]string
// @Router      /users/{id} [put]
func (h *UserHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req request.UpsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	u, err := h.users.Get(ctx, id)
	switch {
	case errors.Is(err, user.ErrNotFound):
		u = &user.User{ID: id, CreatedAt: now}
	case err != nil:
		respondErr(w, r, err)
		return
	}

	u.Name = req.Name
	u.Timezone = req.Timezone
	u.SetPhoneNumbers(req.PhoneNumbers)
	u.UpdatedAt = now
	if _, err := u.Location(); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Save(ctx, u); err != nil {
		respondErr(w, r, err)
		return
	}
	// Users without verification settings are stored without verification.
	if err := h.sync.UpdateByOwner(ctx, u.Ref()); err != nil && !errors.Is(err, verification.ErrSettings) {
		respondErr(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.FromDomainUser(u))
}
