package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
	"github.com/frahmantamala/attendance-management/internal/ledger"
	"github.com/frahmantamala/attendance-management/internal/request"
)

const selectRequests = `
SELECT id, user_id, reporting_id, type, leave_category, start_date, end_date,
       user_request_comment, status, manager_comment, decided_by, decided_at,
       created_at, updated_at
FROM attendance_requests`

const newestFirst = ` ORDER BY created_at DESC, id DESC`

type requestRow struct {
	ID                 int64         `db:"id"`
	UserID             int64         `db:"user_id"`
	ReportingID        *int64        `db:"reporting_id"`
	Type               string        `db:"type"`
	LeaveCategory      *string       `db:"leave_category"`
	StartDate          calendar.Date `db:"start_date"`
	EndDate            calendar.Date `db:"end_date"`
	UserRequestComment *string       `db:"user_request_comment"`
	Status             string        `db:"status"`
	ManagerComment     *string       `db:"manager_comment"`
	DecidedBy          *int64        `db:"decided_by"`
	DecidedAt          *time.Time    `db:"decided_at"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

func (row requestRow) toDomain() *request.Request {
	var category *ledger.Category
	if row.LeaveCategory != nil {
		c := ledger.Category(*row.LeaveCategory)
		category = &c
	}
	return &request.Request{
		ID:                 row.ID,
		UserID:             row.UserID,
		ReportingID:        row.ReportingID,
		Type:               request.Type(row.Type),
		LeaveCategory:      category,
		StartDate:          row.StartDate,
		EndDate:            row.EndDate,
		UserRequestComment: row.UserRequestComment,
		Status:             request.Status(row.Status),
		ManagerComment:     row.ManagerComment,
		DecidedBy:          row.DecidedBy,
		DecidedAt:          row.DecidedAt,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

// ScopedReader runs the listing queries with sqlx over the shared pool.
type ScopedReader struct {
	db *sqlx.DB
}

func NewScopedReader(db *sqlx.DB) *ScopedReader {
	return &ScopedReader{db: db}
}

func (r *ScopedReader) ListByUser(ctx context.Context, userID int64) ([]*request.Request, error) {
	var rows []requestRow
	query := r.db.Rebind(selectRequests + ` WHERE user_id = ?` + newestFirst)
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	return toDomain(rows), nil
}

func (r *ScopedReader) ListByUsers(ctx context.Context, userIDs []int64, status *request.Status) ([]*request.Request, error) {
	if len(userIDs) == 0 {
		return []*request.Request{}, nil
	}

	where := ` WHERE user_id IN (?)`
	args := []interface{}{userIDs}
	if status != nil {
		where += ` AND status = ?`
		args = append(args, string(*status))
	}

	query, args, err := sqlx.In(selectRequests+where+newestFirst, args...)
	if err != nil {
		return nil, err
	}

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return toDomain(rows), nil
}

func toDomain(rows []requestRow) []*request.Request {
	out := make([]*request.Request, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}
