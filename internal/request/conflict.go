package request

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
)

// OverlapFinder runs the inclusive overlap predicate against stored
// PENDING and APPROVED requests of one user.
type OverlapFinder interface {
	HasOverlap(ctx context.Context, userID int64, start, end calendar.Date, excludeID *int64) (bool, error)
}

// ConflictDetector is shared by the advisory precheck and the check made
// inside the submit transaction, so both see the same predicate.
type ConflictDetector struct {
	finder OverlapFinder
	logger *slog.Logger
}

func NewConflictDetector(finder OverlapFinder, logger *slog.Logger) *ConflictDetector {
	return &ConflictDetector{finder: finder, logger: logger}
}

func (d *ConflictDetector) HasOverlap(ctx context.Context, userID int64, start, end calendar.Date, excludeID *int64) (bool, error) {
	overlap, err := d.finder.HasOverlap(ctx, userID, start, end, excludeID)
	if err != nil {
		d.logger.Error("overlap check failed", "error", err, "user_id", userID)
		return false, internal.NewInternalError("failed to check for overlapping requests", err)
	}
	if overlap {
		d.logger.Debug("overlapping request found",
			"user_id", userID,
			"start_date", start.String(),
			"end_date", end.String())
	}
	return overlap, nil
}
