package infodesk

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/events"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
)

type Repository interface {
	// Username returns internal.ErrUserNotFound for an unknown or inactive user.
	Username(ctx context.Context, userID int64) (string, error)
	CreateFeedback(ctx context.Context, f *Feedback) error
	ListFeedback(ctx context.Context) ([]*Feedback, error)
	CreateInfoRequest(ctx context.Context, r *InfoRequest) error
	GetInfoRequest(ctx context.Context, id int64) (*InfoRequest, error)
	ListInfoRequests(ctx context.Context, status *InfoStatus) ([]*InfoRequest, error)
	// Resolve marks an OPEN info request resolved and reports whether it did.
	Resolve(ctx context.Context, id, resolvedBy int64, at time.Time) (bool, error)
}

type Service struct {
	repo   Repository
	events events.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

func (s *Service) SubmitFeedback(ctx context.Context, userID int64, dto SubmitFeedbackDTO) (*Feedback, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	username, err := s.repo.Username(ctx, userID)
	if err != nil {
		return nil, asAppError(err, "failed to load user")
	}

	f := &Feedback{UserID: userID, Username: username, Feedback: dto.Feedback}
	if err := s.repo.CreateFeedback(ctx, f); err != nil {
		s.logger.Error("failed to store feedback", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to store feedback", err)
	}

	s.logger.Info("feedback submitted", "feedback_id", f.ID, "user_id", userID)
	return f, nil
}

func (s *Service) ListFeedback(ctx context.Context, actor *coreuser.Actor) ([]*Feedback, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrAdminOnly
	}

	items, err := s.repo.ListFeedback(ctx)
	if err != nil {
		s.logger.Error("failed to list feedback", "error", err)
		return nil, internal.NewInternalError("failed to list feedback", err)
	}
	return items, nil
}

func (s *Service) SubmitInfoRequest(ctx context.Context, userID int64, dto SubmitInfoRequestDTO) (*InfoRequest, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	username, err := s.repo.Username(ctx, userID)
	if err != nil {
		return nil, asAppError(err, "failed to load user")
	}

	r := &InfoRequest{
		UserID:             userID,
		Username:           username,
		RequestType:        dto.RequestType,
		RequestDescription: dto.RequestDescription,
		Status:             InfoStatusOpen,
	}
	if err := s.repo.CreateInfoRequest(ctx, r); err != nil {
		s.logger.Error("failed to store info request", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to store info request", err)
	}

	s.logger.Info("info request submitted", "info_request_id", r.ID, "user_id", userID, "request_type", r.RequestType)
	return r, nil
}

// ListInfoRequests returns info requests newest first, optionally filtered
// by status.
func (s *Service) ListInfoRequests(ctx context.Context, actor *coreuser.Actor, status string) ([]*InfoRequest, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrAdminOnly
	}

	var filter *InfoStatus
	switch st := InfoStatus(status); st {
	case "":
	case InfoStatusOpen, InfoStatusResolved:
		filter = &st
	default:
		return nil, internal.NewValidationFieldError("status", "status must be OPEN or RESOLVED", internal.ErrCodeInvalidEnum)
	}

	items, err := s.repo.ListInfoRequests(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list info requests", "error", err)
		return nil, internal.NewInternalError("failed to list info requests", err)
	}
	return items, nil
}

// Resolve closes an OPEN info request. Resolving twice is an invalid state.
func (s *Service) Resolve(ctx context.Context, actor *coreuser.Actor, id int64) (*InfoRequest, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrAdminOnly
	}

	current, err := s.repo.GetInfoRequest(ctx, id)
	if err != nil {
		return nil, asAppError(err, "failed to load info request")
	}
	if !current.IsOpen() {
		return nil, internal.ErrInfoRequestResolved
	}

	applied, err := s.repo.Resolve(ctx, id, actor.ID, time.Now().UTC())
	if err != nil {
		s.logger.Error("failed to resolve info request", "error", err, "info_request_id", id)
		return nil, internal.NewInternalError("failed to resolve info request", err)
	}
	if !applied {
		return nil, internal.ErrInfoRequestResolved
	}

	resolved, err := s.repo.GetInfoRequest(ctx, id)
	if err != nil {
		return nil, asAppError(err, "failed to reload info request")
	}

	s.logger.Info("info request resolved", "info_request_id", id, "actor_id", actor.ID)
	if err := s.events.Publish(ctx, events.NewInfoRequestResolvedEvent(id, resolved.UserID, actor.ID)); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", events.EventTypeInfoRequestResolved)
	}
	return resolved, nil
}

func asAppError(err error, message string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(message, err)
}
