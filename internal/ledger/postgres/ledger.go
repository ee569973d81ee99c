package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/attendance-management/internal/core/database"
	userDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/user"
	"github.com/frahmantamala/attendance-management/internal/ledger"
)

// LedgerRepository stores one row per (user, category). Every mutation is a
// single statement so the row lock taken by the database serializes writers.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Debit(ctx context.Context, userID int64, category ledger.Category, days int) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&userDatamodel.LeaveBalance{}).
		Where("user_id = ? AND category = ? AND days >= ?", userID, string(category), days).
		Update("days", gorm.Expr("days - ?", days))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *LedgerRepository) Credit(ctx context.Context, userID int64, category ledger.Category, days int) error {
	conn := database.Conn(ctx, r.db)
	res := conn.Model(&userDatamodel.LeaveBalance{}).
		Where("user_id = ? AND category = ?", userID, string(category)).
		Update("days", gorm.Expr("days + ?", days))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.Set(ctx, userID, category, days)
}

func (r *LedgerRepository) Set(ctx context.Context, userID int64, category ledger.Category, days int) error {
	row := &userDatamodel.LeaveBalance{UserID: userID, Category: string(category), Days: days}
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"days", "updated_at"}),
		}).
		Create(row).Error
}

func (r *LedgerRepository) Get(ctx context.Context, userID int64) (ledger.Balances, error) {
	var rows []userDatamodel.LeaveBalance
	if err := database.Conn(ctx, r.db).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(ledger.Balances, len(rows))
	for _, row := range rows {
		out[ledger.Category(row.Category)] = row.Days
	}
	return out, nil
}

func (r *LedgerRepository) DeleteAll(ctx context.Context, userID int64) error {
	return database.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Delete(&userDatamodel.LeaveBalance{}).Error
}
