package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
	"github.com/frahmantamala/attendance-management/internal/core/database"
	requestDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/request"
	userDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/orgchart"
	"github.com/frahmantamala/attendance-management/internal/request"
)

// overlapPredicate is the inclusive range test s1 <= e2 AND s2 <= e1,
// bound as (end, start) of the candidate range.
const overlapPredicate = "start_date <= ? AND end_date >= ?"

// RequestRepository implements request.Repository using GORM
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	row := request.ToDataModel(req)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	*req = *request.FromDataModel(row)
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*request.Request, error) {
	var row requestDatamodel.AttendanceRequest
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRequestNotFound
		}
		return nil, err
	}
	return request.FromDataModel(&row), nil
}

func (r *RequestRepository) HasOverlap(ctx context.Context, userID int64, start, end calendar.Date, excludeID *int64) (bool, error) {
	q := database.Conn(ctx, r.db).
		Model(&requestDatamodel.AttendanceRequest{}).
		Where("user_id = ?", userID).
		Where("status IN ?", activeStatuses()).
		Where(overlapPredicate, end, start)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RequestRepository) Transition(ctx context.Context, id int64, d request.Decision) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&requestDatamodel.AttendanceRequest{}).
		Where("id = ? AND status = ?", id, string(request.StatusPending)).
		Updates(map[string]interface{}{
			"status":          string(d.Status),
			"manager_comment": d.ManagerComment,
			"decided_by":      d.DecidedBy,
			"decided_at":      d.DecidedAt,
			"updated_at":      d.DecidedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RequestRepository) CountByUserAndStatus(ctx context.Context, userID int64, status request.Status) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).
		Model(&requestDatamodel.AttendanceRequest{}).
		Where("user_id = ? AND status = ?", userID, string(status)).
		Count(&n).Error
	return n, err
}

func (r *RequestRepository) LockOwner(ctx context.Context, userID int64) (*orgchart.Node, error) {
	var u userDatamodel.User
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "role", "reporting_id", "is_active").
		Where("id = ?", userID).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &orgchart.Node{
		ID:          u.ID,
		Role:        coreuser.Role(u.Role),
		ReportingID: u.ReportingID,
		IsActive:    u.IsActive,
	}, nil
}

func activeStatuses() []string {
	out := make([]string, len(request.ActiveStatuses))
	for i, s := range request.ActiveStatuses {
		out[i] = string(s)
	}
	return out
}
