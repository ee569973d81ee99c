package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/common/validation"
)

// Repository persists balances. Implementations resolve their connection from
// ctx so calls made inside a transaction join it.
type Repository interface {
	// Debit subtracts days only if the balance covers them. It returns false
	// when nothing was changed.
	Debit(ctx context.Context, userID int64, category Category, days int) (bool, error)
	Credit(ctx context.Context, userID int64, category Category, days int) error
	Set(ctx context.Context, userID int64, category Category, days int) error
	Get(ctx context.Context, userID int64) (Balances, error)
	DeleteAll(ctx context.Context, userID int64) error
}

type Service struct {
	repo     Repository
	defaults Balances
	logger   *slog.Logger
}

func NewService(repo Repository, defaults Balances, logger *slog.Logger) *Service {
	if len(defaults) == 0 {
		defaults = DefaultBalances
	}
	return &Service{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}
}

func (s *Service) Defaults() Balances {
	return s.defaults.Merge(nil)
}

// Debit draws days from a tracked balance, failing with INSUFFICIENT_BALANCE
// when the balance does not cover them. The balance never goes negative.
func (s *Service) Debit(ctx context.Context, userID int64, category Category, days int) error {
	if appErr := validateMutation(category, days, 1); appErr != nil {
		return appErr
	}

	applied, err := s.repo.Debit(ctx, userID, category, days)
	if err != nil {
		s.logger.Error("failed to debit leave balance", "error", err, "user_id", userID, "category", category)
		return internal.NewInternalError("failed to debit leave balance", err)
	}
	if !applied {
		available, err := s.available(ctx, userID, category)
		if err != nil {
			return err
		}
		s.logger.Warn("leave debit refused: insufficient balance",
			"user_id", userID,
			"category", category,
			"requested", days,
			"available", available)
		return internal.ErrInsufficientBalance.WithMessage(
			fmt.Sprintf("insufficient %s balance: requested %d, available %d", category, days, available))
	}

	s.logger.Info("leave balance debited", "user_id", userID, "category", category, "days", days)
	return nil
}

func (s *Service) Credit(ctx context.Context, userID int64, category Category, days int) error {
	if appErr := validateMutation(category, days, 1); appErr != nil {
		return appErr
	}
	if err := s.repo.Credit(ctx, userID, category, days); err != nil {
		s.logger.Error("failed to credit leave balance", "error", err, "user_id", userID, "category", category)
		return internal.NewInternalError("failed to credit leave balance", err)
	}
	s.logger.Info("leave balance credited", "user_id", userID, "category", category, "days", days)
	return nil
}

// SetBalance is an administrative override of one category.
func (s *Service) SetBalance(ctx context.Context, userID int64, category Category, value int) error {
	if appErr := validateMutation(category, value, 0); appErr != nil {
		return appErr
	}
	if err := s.repo.Set(ctx, userID, category, value); err != nil {
		s.logger.Error("failed to set leave balance", "error", err, "user_id", userID, "category", category)
		return internal.NewInternalError("failed to set leave balance", err)
	}
	return nil
}

// Initialize writes every tracked category for a new user, taking the
// configured defaults for categories without an override.
func (s *Service) Initialize(ctx context.Context, userID int64, overrides map[Category]*int) error {
	balances := s.defaults.Merge(overrides)
	for _, c := range TrackedCategories {
		if err := s.SetBalance(ctx, userID, c, balances[c]); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes only the provided overrides.
func (s *Service) Apply(ctx context.Context, userID int64, overrides map[Category]*int) error {
	for _, c := range TrackedCategories {
		if v, ok := overrides[c]; ok && v != nil {
			if err := s.SetBalance(ctx, userID, c, *v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) Balances(ctx context.Context, userID int64) (Balances, error) {
	b, err := s.repo.Get(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load leave balances", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to load leave balances", err)
	}
	for _, c := range TrackedCategories {
		if _, ok := b[c]; !ok {
			b[c] = 0
		}
	}
	return b, nil
}

func (s *Service) Remove(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteAll(ctx, userID); err != nil {
		return internal.NewInternalError("failed to remove leave balances", err)
	}
	return nil
}

func (s *Service) available(ctx context.Context, userID int64, category Category) (int, error) {
	b, err := s.Balances(ctx, userID)
	if err != nil {
		return 0, err
	}
	return b[category], nil
}

func validateMutation(category Category, days, min int) *internal.AppError {
	v := validation.NewValidator()
	v.Field("category", category).Custom(func(value interface{}) *internal.AppError {
		if !category.Tracked() {
			return internal.NewValidationFieldError("category",
				fmt.Sprintf("category %q has no tracked balance", category), internal.ErrCodeInvalidCategory)
		}
		return nil
	})
	v.Field("days", days).MinInt(min, internal.ErrCodeInvalidDays)
	return v.Validate()
}
