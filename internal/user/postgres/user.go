package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/database"
	userDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/user"
)

// UserRepository implements user.Repository using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	row := user.ToDataModel(u)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrUsernameTaken
		}
		return err
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var row userDatamodel.User
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

// GetForUpdate loads the user under a row lock held until the surrounding
// transaction ends. Request submission takes the same lock.
func (r *UserRepository) GetForUpdate(ctx context.Context, id int64) (*user.User, error) {
	var row userDatamodel.User
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var row userDatamodel.User
	if err := database.Conn(ctx, r.db).Where("username = ?", username).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

// UsernameTaken includes deleted users; their names stay reserved.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID *int64) (bool, error) {
	q := database.Conn(ctx, r.db).Unscoped().Model(&userDatamodel.User{}).Where("username = ?", username)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return internal.ErrUsernameTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// Delete deactivates the user and marks the row deleted. Requests, feedback
// and info requests keep referencing it.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Model(&userDatamodel.User{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
		return err
	}
	res := conn.Where("id = ?", id).Delete(&userDatamodel.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, role *coreuser.Role, reportingID *int64) ([]*user.User, error) {
	q := database.Conn(ctx, r.db).Model(&userDatamodel.User{})
	if role != nil {
		q = q.Where("role = ?", string(*role))
	}
	if reportingID != nil {
		q = q.Where("reporting_id = ?", *reportingID)
	}

	var rows []*userDatamodel.User
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(rows), nil
}

// CountReports counts inactive subordinates too; they still hold the edge.
func (r *UserRepository) CountReports(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).
		Model(&userDatamodel.User{}).
		Where("reporting_id = ?", id).
		Count(&n).Error
	return n, err
}
