package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/database"
	infodeskDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/infodesk"
	userDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/user"
	"github.com/frahmantamala/attendance-management/internal/infodesk"
)

type InfoDeskRepository struct {
	db *gorm.DB
}

func NewInfoDeskRepository(db *gorm.DB) *InfoDeskRepository {
	return &InfoDeskRepository{db: db}
}

func (r *InfoDeskRepository) Username(ctx context.Context, userID int64) (string, error) {
	var u userDatamodel.User
	err := database.Conn(ctx, r.db).
		Select("username").
		Where("id = ? AND is_active = ?", userID, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", internal.ErrUserNotFound
		}
		return "", err
	}
	return u.Username, nil
}

func (r *InfoDeskRepository) CreateFeedback(ctx context.Context, f *infodesk.Feedback) error {
	row := infodesk.FeedbackToDataModel(f)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	f.ID = row.ID
	f.CreatedAt = row.CreatedAt
	return nil
}

func (r *InfoDeskRepository) ListFeedback(ctx context.Context) ([]*infodesk.Feedback, error) {
	var rows []*infodeskDatamodel.Feedback
	err := database.Conn(ctx, r.db).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*infodesk.Feedback, 0, len(rows))
	for _, row := range rows {
		out = append(out, infodesk.FeedbackFromDataModel(row))
	}
	return out, nil
}

func (r *InfoDeskRepository) CreateInfoRequest(ctx context.Context, req *infodesk.InfoRequest) error {
	row := infodesk.InfoRequestToDataModel(req)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	req.ID = row.ID
	req.CreatedAt = row.CreatedAt
	req.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *InfoDeskRepository) GetInfoRequest(ctx context.Context, id int64) (*infodesk.InfoRequest, error) {
	var row infodeskDatamodel.InfoRequest
	if err := database.Conn(ctx, r.db).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrInfoRequestNotFound
		}
		return nil, err
	}
	return infodesk.InfoRequestFromDataModel(&row), nil
}

func (r *InfoDeskRepository) ListInfoRequests(ctx context.Context, status *infodesk.InfoStatus) ([]*infodesk.InfoRequest, error) {
	q := database.Conn(ctx, r.db).Order("created_at DESC, id DESC")
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}

	var rows []*infodeskDatamodel.InfoRequest
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*infodesk.InfoRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, infodesk.InfoRequestFromDataModel(row))
	}
	return out, nil
}

func (r *InfoDeskRepository) Resolve(ctx context.Context, id, resolvedBy int64, at time.Time) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&infodeskDatamodel.InfoRequest{}).
		Where("id = ? AND status = ?", id, string(infodesk.InfoStatusOpen)).
		Updates(map[string]interface{}{
			"status":      string(infodesk.InfoStatusResolved),
			"resolved_by": resolvedBy,
			"resolved_at": at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
