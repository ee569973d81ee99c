package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/attendance-management/internal"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/ledger"
	"github.com/frahmantamala/attendance-management/internal/transport"
	"github.com/frahmantamala/attendance-management/pkg/logger"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	Balances(ctx context.Context, userID int64) (ledger.Balances, error)
	List(ctx context.Context, actor *coreuser.Actor, q ListUsersQuery) ([]*User, error)
	Create(ctx context.Context, actor *coreuser.Actor, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, actor *coreuser.Actor, userID int64, dto UpdateUserDTO) (*User, error)
	UpdateSelf(ctx context.Context, actor *coreuser.Actor, dto UpdateProfileDTO) (*User, error)
	Delete(ctx context.Context, actor *coreuser.Actor, userID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	u, err := h.Service.GetByID(r.Context(), actor.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// GetMyBalances handles GET /users/me/balances
func (h *Handler) GetMyBalances(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	balances, err := h.Service.Balances(r.Context(), actor.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, balances)
}

// UpdateCurrentUser handles PUT /users/me
func (h *Handler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto UpdateProfileDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	u, err := h.Service.UpdateSelf(r.Context(), actor, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /users?role=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	users, err := h.Service.List(r.Context(), actor, ListUsersQuery{Role: r.URL.Query().Get("role")})
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateUserDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	u, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.Logger.Info("CreateUser: user created", "user_id", u.ID, "role", u.Role, "actor_id", actor.ID)
	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto UpdateUserDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	u, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /users/{id}. The caller must confirm the intent
// with ?confirm=true; without it nothing changes.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		h.WriteJSON(w, http.StatusPreconditionRequired, map[string]interface{}{
			"error":   internal.NewValidationError("deletion must be confirmed with ?confirm=true", internal.ErrCodeValidationFailed),
			"user_id": id,
		})
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.Logger.Info("DeleteUser: user deleted", "user_id", id, "actor_id", actor.ID)
	w.WriteHeader(http.StatusNoContent)
}
