package infodesk

import (
	"context"
	"log/slog"
	"net/http"

	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/transport"
	"github.com/frahmantamala/attendance-management/pkg/logger"
)

type ServiceAPI interface {
	SubmitFeedback(ctx context.Context, userID int64, dto SubmitFeedbackDTO) (*Feedback, error)
	ListFeedback(ctx context.Context, actor *coreuser.Actor) ([]*Feedback, error)
	SubmitInfoRequest(ctx context.Context, userID int64, dto SubmitInfoRequestDTO) (*InfoRequest, error)
	ListInfoRequests(ctx context.Context, actor *coreuser.Actor, status string) ([]*InfoRequest, error)
	Resolve(ctx context.Context, actor *coreuser.Actor, id int64) (*InfoRequest, error)
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

// SubmitFeedback handles POST /feedback
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto SubmitFeedbackDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	f, err := h.Service.SubmitFeedback(r.Context(), actor.ID, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, f)
}

// ListFeedback handles GET /feedback
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	items, err := h.Service.ListFeedback(r.Context(), actor)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if items == nil {
		items = []*Feedback{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": items,
		"count":    len(items),
	})
}

// SubmitInfoRequest handles POST /info-requests
func (h *Handler) SubmitInfoRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto SubmitInfoRequestDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	req, err := h.Service.SubmitInfoRequest(r.Context(), actor.ID, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, req)
}

// ListInfoRequests handles GET /info-requests?status=
func (h *Handler) ListInfoRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	items, err := h.Service.ListInfoRequests(r.Context(), actor, r.URL.Query().Get("status"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if items == nil {
		items = []*InfoRequest{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"info_requests": items,
		"count":         len(items),
	})
}

// ResolveInfoRequest handles PATCH /info-requests/{id}/resolve
func (h *Handler) ResolveInfoRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	req, err := h.Service.Resolve(r.Context(), actor, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}
