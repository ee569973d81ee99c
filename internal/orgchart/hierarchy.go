package orgchart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/attendance-management/internal"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
)

// maxDepth bounds chain walks so a corrupted reporting graph cannot loop forever.
const maxDepth = 64

type Node struct {
	ID          int64
	Role        coreuser.Role
	ReportingID *int64
	IsActive    bool
}

type Directory interface {
	// Node returns internal.ErrUserNotFound for an unknown id.
	Node(ctx context.Context, userID int64) (*Node, error)
	DirectReports(ctx context.Context, managerID int64) ([]int64, error)
}

// Hierarchy answers reporting-tree questions from the reporting_id edges.
type Hierarchy struct {
	dir    Directory
	logger *slog.Logger
}

func NewHierarchy(dir Directory, logger *slog.Logger) *Hierarchy {
	return &Hierarchy{dir: dir, logger: logger}
}

// DirectReports lists the active users whose supervisor is managerID.
func (h *Hierarchy) DirectReports(ctx context.Context, managerID int64) ([]int64, error) {
	ids, err := h.dir.DirectReports(ctx, managerID)
	if err != nil {
		h.logger.Error("failed to load direct reports", "error", err, "manager_id", managerID)
		return nil, internal.NewInternalError("failed to load direct reports", err)
	}
	return ids, nil
}

// ManagerOf returns the supervisor of userID, or nil for a root admin.
func (h *Hierarchy) ManagerOf(ctx context.Context, userID int64) (*int64, error) {
	n, err := h.node(ctx, userID)
	if err != nil {
		return nil, err
	}
	return n.ReportingID, nil
}

// IsAncestor reports whether candidate sits anywhere above userID.
func (h *Hierarchy) IsAncestor(ctx context.Context, candidate, userID int64) (bool, error) {
	current := userID
	for depth := 0; depth < maxDepth; depth++ {
		n, err := h.node(ctx, current)
		if err != nil {
			return false, err
		}
		if n.ReportingID == nil {
			return false, nil
		}
		if *n.ReportingID == candidate {
			return true, nil
		}
		current = *n.ReportingID
	}
	h.logger.Error("reporting chain exceeds maximum depth", "user_id", userID, "max_depth", maxDepth)
	return false, internal.NewInternalError("reporting chain is too deep or cyclic", nil)
}

// ValidateReporting checks that a user of role may report to reportingID.
// userID is nil for a user that does not exist yet.
func (h *Hierarchy) ValidateReporting(ctx context.Context, userID *int64, role coreuser.Role, reportingID *int64) error {
	if reportingID == nil {
		if role == coreuser.RoleAdmin {
			return nil
		}
		return internal.NewValidationFieldError("reporting_id",
			fmt.Sprintf("reporting_id is required for role %s", role), internal.ErrCodeInvalidReporting)
	}

	if userID != nil && *userID == *reportingID {
		return internal.NewValidationFieldError("reporting_id", "a user cannot report to themselves", internal.ErrCodeInvalidReporting)
	}

	supervisor, err := h.dir.Node(ctx, *reportingID)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return internal.NewValidationFieldError("reporting_id", "reporting user does not exist", internal.ErrCodeInvalidReporting)
		}
		return internal.NewInternalError("failed to load reporting user", err)
	}
	if !supervisor.IsActive {
		return internal.NewValidationFieldError("reporting_id", "reporting user is inactive", internal.ErrCodeInvalidReporting)
	}

	want := coreuser.SupervisorRole(role)
	if supervisor.Role != want {
		return internal.NewValidationFieldError("reporting_id",
			fmt.Sprintf("a %s must report to a %s, not a %s", role, want, supervisor.Role), internal.ErrCodeInvalidReporting)
	}

	if userID != nil {
		cyclic, err := h.IsAncestor(ctx, *userID, *reportingID)
		if err != nil {
			return err
		}
		if cyclic {
			return internal.NewValidationFieldError("reporting_id", "reporting change would create a cycle", internal.ErrCodeInvalidReporting)
		}
	}
	return nil
}

func (h *Hierarchy) node(ctx context.Context, userID int64) (*Node, error) {
	n, err := h.dir.Node(ctx, userID)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return nil, err
		}
		h.logger.Error("failed to load org node", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return n, nil
}
