package user

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/database"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/ledger"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	// GetByID returns internal.ErrUserNotFound for an unknown id.
	GetByID(ctx context.Context, id int64) (*User, error)
	UsernameTaken(ctx context.Context, username string, excludeID *int64) (bool, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	// GetForUpdate locks the user row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int64) (*User, error)
	// Delete soft-deletes the user; its request history is kept.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, role *coreuser.Role, reportingID *int64) ([]*User, error)
	CountReports(ctx context.Context, id int64) (int64, error)
}

type Ledger interface {
	Initialize(ctx context.Context, userID int64, overrides map[ledger.Category]*int) error
	Apply(ctx context.Context, userID int64, overrides map[ledger.Category]*int) error
	Balances(ctx context.Context, userID int64) (ledger.Balances, error)
	Remove(ctx context.Context, userID int64) error
}

type Hierarchy interface {
	ValidateReporting(ctx context.Context, userID *int64, role coreuser.Role, reportingID *int64) error
}

// PendingCounter reports how many PENDING requests a user owns.
type PendingCounter interface {
	PendingCount(ctx context.Context, userID int64) (int64, error)
}

type Service struct {
	repo       Repository
	tx         database.Transactor
	ledger     Ledger
	hierarchy  Hierarchy
	pending    PendingCounter
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, tx database.Transactor, ledger Ledger, hierarchy Hierarchy, pending PendingCounter, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		tx:         tx,
		ledger:     ledger,
		hierarchy:  hierarchy,
		pending:    pending,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, wrap(err, "failed to get user")
	}

	balances, err := s.ledger.Balances(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Balances = balances
	return u, nil
}

func (s *Service) Balances(ctx context.Context, userID int64) (ledger.Balances, error) {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return nil, wrap(err, "failed to get user")
	}
	return s.ledger.Balances(ctx, userID)
}

// List returns users visible to actor. Admins see everyone, managers only
// their direct reports.
func (s *Service) List(ctx context.Context, actor *coreuser.Actor, q ListUsersQuery) ([]*User, error) {
	if appErr := q.Validate(); appErr != nil {
		return nil, appErr
	}

	var role *coreuser.Role
	if q.Role != "" {
		r := coreuser.Role(q.Role)
		role = &r
	}

	var reportingID *int64
	switch {
	case actor.IsAdmin():
	case actor.IsManager():
		reportingID = &actor.ID
	default:
		return nil, internal.ErrUserNotManageable
	}

	users, err := s.repo.List(ctx, role, reportingID)
	if err != nil {
		s.logger.Error("failed to list users", "error", err, "actor_id", actor.ID)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

// Create adds a user. A manager may only create its own employees; an admin
// may create any role. The supervisor defaults to the creator for
// non-admin roles.
func (s *Service) Create(ctx context.Context, actor *coreuser.Actor, dto CreateUserDTO) (*User, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	role := coreuser.Role(dto.Role)
	reportingID := dto.ReportingID
	if reportingID == nil && role != coreuser.RoleAdmin {
		reportingID = &actor.ID
	}

	switch {
	case actor.IsAdmin():
	case actor.IsManager():
		if role != coreuser.RoleEmployee || *reportingID != actor.ID {
			s.logger.Warn("manager attempted to create a user outside its team", "actor_id", actor.ID, "role", role)
			return nil, internal.ErrUserNotManageable
		}
	default:
		return nil, internal.ErrUserNotManageable
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:     dto.Username,
		PasswordHash: string(hash),
		Role:         role,
		ReportingID:  reportingID,
		IsActive:     true,
	}
	dto.ProfileDTO.apply(u, map[string]interface{}{})

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		taken, err := s.repo.UsernameTaken(ctx, u.Username, nil)
		if err != nil {
			return internal.NewInternalError("failed to check username", err)
		}
		if taken {
			return internal.ErrUsernameTaken
		}
		if err := s.hierarchy.ValidateReporting(ctx, nil, role, reportingID); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, u); err != nil {
			s.logger.Error("failed to create user", "error", err, "username", u.Username)
			return wrap(err, "failed to create user")
		}
		return s.ledger.Initialize(ctx, u.ID, dto.Balances.Overrides())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "role", role, "actor_id", actor.ID)
	return s.GetByID(ctx, u.ID)
}

// Update changes only the fields present in dto.
func (s *Service) Update(ctx context.Context, actor *coreuser.Actor, userID int64, dto UpdateUserDTO) (*User, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		target, err := s.repo.GetForUpdate(ctx, userID)
		if err != nil {
			return wrap(err, "failed to get user")
		}
		if !canManage(actor, target) {
			return internal.ErrUserNotManageable
		}

		fields := map[string]interface{}{}

		if dto.Username != nil && *dto.Username != target.Username {
			taken, err := s.repo.UsernameTaken(ctx, *dto.Username, &userID)
			if err != nil {
				return internal.NewInternalError("failed to check username", err)
			}
			if taken {
				return internal.ErrUsernameTaken
			}
			fields["username"] = *dto.Username
		}

		if dto.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.bcryptCost)
			if err != nil {
				return internal.NewInternalError("failed to hash password", err)
			}
			fields["password_hash"] = string(hash)
		}

		role, reportingID := target.Role, target.ReportingID
		if dto.Role != nil {
			role = coreuser.Role(*dto.Role)
		}
		if dto.ReportingID != nil {
			reportingID = dto.ReportingID
		}
		roleChanged := role != target.Role
		if roleChanged || dto.ReportingID != nil {
			if actor.IsManager() && (role != coreuser.RoleEmployee || *reportingID != actor.ID) {
				return internal.ErrUserNotManageable
			}
			if roleChanged {
				if err := s.ensureNoReports(ctx, userID); err != nil {
					return err
				}
			}
			if err := s.hierarchy.ValidateReporting(ctx, &userID, role, reportingID); err != nil {
				return err
			}
			fields["role"] = string(role)
			fields["reporting_id"] = reportingID
		}

		if dto.IsActive != nil && *dto.IsActive != target.IsActive {
			if !*dto.IsActive {
				if err := s.ensureNoReports(ctx, userID); err != nil {
					return err
				}
				if err := s.ensureNoPending(ctx, userID); err != nil {
					return err
				}
			}
			fields["is_active"] = *dto.IsActive
		}

		dto.ProfileDTO.apply(target, fields)

		if len(fields) > 0 {
			if err := s.repo.Update(ctx, userID, fields); err != nil {
				s.logger.Error("failed to update user", "error", err, "user_id", userID)
				return wrap(err, "failed to update user")
			}
		}
		return s.ledger.Apply(ctx, userID, dto.Balances.Overrides())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", userID, "actor_id", actor.ID)
	return s.GetByID(ctx, userID)
}

// UpdateSelf lets any user change its own password and profile.
func (s *Service) UpdateSelf(ctx context.Context, actor *coreuser.Actor, dto UpdateProfileDTO) (*User, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	target, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, wrap(err, "failed to get user")
	}

	fields := map[string]interface{}{}
	if dto.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		fields["password_hash"] = string(hash)
	}
	dto.ProfileDTO.apply(target, fields)

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, actor.ID, fields); err != nil {
			return nil, wrap(err, "failed to update profile")
		}
	}
	return s.GetByID(ctx, actor.ID)
}

// Delete retires a user that has no subordinates and no pending requests.
// The user row is locked first so a concurrent submit cannot slip a PENDING
// request in between the check and the delete.
func (s *Service) Delete(ctx context.Context, actor *coreuser.Actor, userID int64) error {
	if actor.ID == userID {
		return internal.ErrUserNotManageable.WithMessage("users cannot delete themselves")
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		target, err := s.repo.GetForUpdate(ctx, userID)
		if err != nil {
			return wrap(err, "failed to get user")
		}
		if !canManage(actor, target) {
			return internal.ErrUserNotManageable
		}
		if err := s.ensureNoReports(ctx, userID); err != nil {
			return err
		}
		if err := s.ensureNoPending(ctx, userID); err != nil {
			return err
		}

		if err := s.ledger.Remove(ctx, userID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, userID); err != nil {
			s.logger.Error("failed to delete user", "error", err, "user_id", userID)
			return internal.NewInternalError("failed to delete user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", userID, "actor_id", actor.ID)
	return nil
}

func (s *Service) ensureNoReports(ctx context.Context, userID int64) error {
	n, err := s.repo.CountReports(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to count subordinates", err)
	}
	if n > 0 {
		return internal.ErrUserHasReports
	}
	return nil
}

func (s *Service) ensureNoPending(ctx context.Context, userID int64) error {
	n, err := s.pending.PendingCount(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		return internal.ErrUserHasPending
	}
	return nil
}

// canManage: admins manage anyone, managers only their direct employees.
func canManage(actor *coreuser.Actor, target *User) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsManager():
		return target.Role == coreuser.RoleEmployee && target.ReportsTo(actor.ID)
	}
	return false
}

func wrap(err error, message string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(message, err)
}
