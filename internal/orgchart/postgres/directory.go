package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/database"
	userDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/orgchart"
)

type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) Node(ctx context.Context, userID int64) (*orgchart.Node, error) {
	var u userDatamodel.User
	err := database.Conn(ctx, r.db).
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

func (r *DirectoryRepository) DirectReports(ctx context.Context, managerID int64) ([]int64, error) {
	var ids []int64
	err := database.Conn(ctx, r.db).
		Model(&userDatamodel.User{}).
		Where("reporting_id = ? AND is_active = ?", managerID, true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}
