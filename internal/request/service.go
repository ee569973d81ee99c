package request

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/database"
	"github.com/frahmantamala/attendance-management/internal/core/events"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/ledger"
	"github.com/frahmantamala/attendance-management/internal/orgchart"
)

// Repository is the write side of request storage. Implementations resolve
// their connection from ctx so calls inside a transaction join it.
type Repository interface {
	OverlapFinder
	Create(ctx context.Context, req *Request) error
	// GetByID returns internal.ErrRequestNotFound for an unknown id.
	GetByID(ctx context.Context, id int64) (*Request, error)
	// Transition applies d only while the request is still PENDING and
	// reports whether it did.
	Transition(ctx context.Context, id int64, d Decision) (bool, error)
	CountByUserAndStatus(ctx context.Context, userID int64, status Status) (int64, error)
	// LockOwner takes a row lock on the owner, serializing submits per user.
	LockOwner(ctx context.Context, userID int64) (*orgchart.Node, error)
}

// Reader serves scoped listings, most recent first.
type Reader interface {
	ListByUser(ctx context.Context, userID int64) ([]*Request, error)
	ListByUsers(ctx context.Context, userIDs []int64, status *Status) ([]*Request, error)
}

type Ledger interface {
	Debit(ctx context.Context, userID int64, category ledger.Category, days int) error
}

type Service struct {
	repo     Repository
	reader   Reader
	tx       database.Transactor
	ledger   Ledger
	scope    *AccessScope
	detector *ConflictDetector
	cache    ListCache
	events   events.Publisher
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	reader Reader,
	tx database.Transactor,
	ledger Ledger,
	scope *AccessScope,
	cache ListCache,
	publisher events.Publisher,
	logger *slog.Logger,
) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:     repo,
		reader:   reader,
		tx:       tx,
		ledger:   ledger,
		scope:    scope,
		detector: NewConflictDetector(repo, logger),
		cache:    cache,
		events:   publisher,
		logger:   logger,
	}
}

// Submit files a new PENDING request for userID. The owner row is locked for
// the duration of the overlap check and insert.
func (s *Service) Submit(ctx context.Context, userID int64, dto SubmitRequestDTO) (*Request, error) {
	sub, appErr := dto.Validate()
	if appErr != nil {
		s.logger.Warn("request validation failed", "error", appErr, "user_id", userID)
		return nil, appErr
	}

	var created *Request
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		owner, err := s.repo.LockOwner(ctx, userID)
		if err != nil {
			return asAppError(err, "failed to lock request owner")
		}
		if !owner.IsActive {
			return internal.ErrUserNotFound.WithMessage("user is not active")
		}

		overlap, err := s.detector.HasOverlap(ctx, userID, sub.StartDate, sub.EndDate, nil)
		if err != nil {
			return err
		}
		if overlap {
			return internal.ErrRequestOverlap
		}

		req := &Request{
			UserID:             userID,
			ReportingID:        owner.ReportingID,
			Type:               sub.Type,
			LeaveCategory:      sub.LeaveCategory,
			StartDate:          sub.StartDate,
			EndDate:            sub.EndDate,
			UserRequestComment: sub.Comment,
			Status:             StatusPending,
		}
		if err := s.repo.Create(ctx, req); err != nil {
			s.logger.Error("failed to create request", "error", err, "user_id", userID)
			return internal.NewInternalError("failed to create request", err)
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.publish(ctx, events.NewRequestSubmittedEvent(
		created.ID, created.UserID, created.ReportingID, string(created.Type),
		created.StartDate.String(), created.EndDate.String()))

	s.logger.Info("request submitted",
		"request_id", created.ID,
		"user_id", userID,
		"type", created.Type,
		"days", created.DayCount())

	return created, nil
}

// Precheck is advisory. A false result does not guarantee Submit succeeds.
func (s *Service) Precheck(ctx context.Context, userID int64, q PrecheckQuery) (bool, error) {
	start, end, appErr := q.Range()
	if appErr != nil {
		return false, appErr
	}
	return s.detector.HasOverlap(ctx, userID, start, end, nil)
}

func (s *Service) ListOwn(ctx context.Context, userID int64) ([]*Request, error) {
	if cached, ok, err := s.cache.GetOwn(ctx, userID); err != nil {
		s.logger.Warn("request cache read failed", "error", err, "user_id", userID)
	} else if ok {
		return cached, nil
	}

	requests, err := s.reader.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list requests", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to list requests", err)
	}

	if err := s.cache.SetOwn(ctx, userID, requests); err != nil {
		s.logger.Warn("request cache write failed", "error", err, "user_id", userID)
	}
	return requests, nil
}

func (s *Service) ListPendingForActor(ctx context.Context, actor *coreuser.Actor) ([]*Request, error) {
	pending := StatusPending
	return s.listScoped(ctx, actor, &pending)
}

func (s *Service) ListVisible(ctx context.Context, actor *coreuser.Actor) ([]*Request, error) {
	return s.listScoped(ctx, actor, nil)
}

func (s *Service) listScoped(ctx context.Context, actor *coreuser.Actor, status *Status) ([]*Request, error) {
	owners, err := s.scope.VisibleOwners(ctx, actor)
	if err != nil {
		return nil, asAppError(err, "failed to resolve visible users")
	}
	if len(owners) == 0 {
		return []*Request{}, nil
	}

	requests, err := s.reader.ListByUsers(ctx, owners, status)
	if err != nil {
		s.logger.Error("failed to list scoped requests", "error", err, "actor_id", actor.ID)
		return nil, internal.NewInternalError("failed to list requests", err)
	}
	return requests, nil
}

func (s *Service) Get(ctx context.Context, actor *coreuser.Actor, requestID int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, asAppError(err, "failed to load request")
	}

	ok, err := s.scope.CanView(ctx, actor, req)
	if err != nil {
		return nil, asAppError(err, "failed to check request access")
	}
	if !ok {
		// hidden requests are reported as missing
		return nil, internal.ErrRequestNotFound
	}
	return req, nil
}

// Decide approves or rejects a PENDING request. The status transition and any
// ledger debit commit together; a failed debit leaves the request PENDING.
func (s *Service) Decide(ctx context.Context, actor *coreuser.Actor, requestID int64, dto DecideRequestDTO) (*Request, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	decision := Decision{
		Status:         Status(dto.Decision),
		ManagerComment: trimmed(dto.Comment),
		DecidedBy:      actor.ID,
		DecidedAt:      time.Now().UTC(),
	}

	var (
		decided *Request
		debited int
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetByID(ctx, requestID)
		if err != nil {
			return asAppError(err, "failed to load request")
		}
		if !req.IsPending() {
			return internal.ErrRequestNotPending
		}

		allowed, err := s.scope.CanDecide(ctx, actor, req)
		if err != nil {
			return asAppError(err, "failed to check decision rights")
		}
		if !allowed {
			s.logger.Warn("decision refused",
				"request_id", requestID,
				"actor_id", actor.ID,
				"actor_role", actor.Role,
				"owner_id", req.UserID)
			return internal.ErrDecisionNotAllowed
		}

		applied, err := s.repo.Transition(ctx, requestID, decision)
		if err != nil {
			s.logger.Error("failed to transition request", "error", err, "request_id", requestID)
			return internal.NewInternalError("failed to update request", err)
		}
		if !applied {
			// a concurrent decide won
			return internal.ErrRequestNotPending
		}

		if decision.Status == StatusApproved && req.DrawsBalance() {
			if err := s.ledger.Debit(ctx, req.UserID, *req.LeaveCategory, req.DayCount()); err != nil {
				return err
			}
			debited = req.DayCount()
		}

		decided, err = s.repo.GetByID(ctx, requestID)
		if err != nil {
			return asAppError(err, "failed to reload request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, decided.UserID)

	category := ""
	if decided.LeaveCategory != nil {
		category = string(*decided.LeaveCategory)
	}
	s.publish(ctx, events.NewRequestDecidedEvent(
		decided.ID, decided.UserID, actor.ID, string(decided.Status), category, debited))

	s.logger.Info("request decided",
		"request_id", decided.ID,
		"actor_id", actor.ID,
		"status", decided.Status,
		"days_debited", debited)

	return decided, nil
}

// PendingCount is used by the user directory to guard deletes.
func (s *Service) PendingCount(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.CountByUserAndStatus(ctx, userID, StatusPending)
	if err != nil {
		return 0, internal.NewInternalError("failed to count pending requests", err)
	}
	return n, nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if err := s.cache.InvalidateOwn(ctx, userID); err != nil {
		s.logger.Warn("request cache invalidation failed", "error", err, "user_id", userID)
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", event.EventType())
	}
}

// asAppError passes AppErrors through and wraps anything else as internal.
func asAppError(err error, message string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(message, err)
}
