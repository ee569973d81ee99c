package request

import (
	"context"
	"log/slog"
	"net/http"

	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/transport"
	"github.com/frahmantamala/attendance-management/pkg/logger"
)

type ServiceAPI interface {
	Submit(ctx context.Context, userID int64, dto SubmitRequestDTO) (*Request, error)
	Precheck(ctx context.Context, userID int64, q PrecheckQuery) (bool, error)
	ListOwn(ctx context.Context, userID int64) ([]*Request, error)
	ListPendingForActor(ctx context.Context, actor *coreuser.Actor) ([]*Request, error)
	ListVisible(ctx context.Context, actor *coreuser.Actor) ([]*Request, error)
	Get(ctx context.Context, actor *coreuser.Actor, requestID int64) (*Request, error)
	Decide(ctx context.Context, actor *coreuser.Actor, requestID int64, dto DecideRequestDTO) (*Request, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto SubmitRequestDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	req, err := h.Service.Submit(r.Context(), actor.ID, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) Precheck(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	q := PrecheckQuery{
		StartDate: r.URL.Query().Get("start"),
		EndDate:   r.URL.Query().Get("end"),
	}
	overlap, err := h.Service.Precheck(r.Context(), actor.ID, q)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"start":    q.StartDate,
		"end":      q.EndDate,
		"conflict": overlap,
	})
}

func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.ListOwn(r.Context(), actor.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.writeList(w, requests)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.ListPendingForActor(r.Context(), actor)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.writeList(w, requests)
}

func (h *Handler) ListVisible(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.ListVisible(r.Context(), actor)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.writeList(w, requests)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	req, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto DecideRequestDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	req, err := h.Service.Decide(r.Context(), actor, id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.Logger.Info("Decide: request decided", "request_id", req.ID, "actor_id", actor.ID, "status", req.Status)
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) writeList(w http.ResponseWriter, requests []*Request) {
	if requests == nil {
		requests = []*Request{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"count":    len(requests),
	})
}
