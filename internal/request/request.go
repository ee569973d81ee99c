package request

import (
	"time"

	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
	requestDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/request"
	"github.com/frahmantamala/attendance-management/internal/ledger"
)

type Type string

const (
	TypeAttendance Type = "ATTENDANCE"
	TypeLeave      Type = "LEAVE"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ActiveStatuses are the statuses that reserve a date range.
var ActiveStatuses = []Status{StatusPending, StatusApproved}

type Request struct {
	ID                 int64            `json:"id"`
	UserID             int64            `json:"user_id"`
	ReportingID        *int64           `json:"reporting_id,omitempty"`
	Type               Type             `json:"type"`
	LeaveCategory      *ledger.Category `json:"leave_category,omitempty"`
	StartDate          calendar.Date    `json:"start_date"`
	EndDate            calendar.Date    `json:"end_date"`
	UserRequestComment *string          `json:"user_request_comment,omitempty"`
	Status             Status           `json:"status"`
	ManagerComment     *string          `json:"manager_comment,omitempty"`
	DecidedBy          *int64           `json:"decided_by,omitempty"`
	DecidedAt          *time.Time       `json:"decided_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Decision is the single mutation a pending request ever receives.
type Decision struct {
	Status         Status
	ManagerComment *string
	DecidedBy      int64
	DecidedAt      time.Time
}

func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// DayCount is the inclusive length of the request in days.
func (r *Request) DayCount() int {
	return calendar.DayCount(r.StartDate, r.EndDate)
}

// DrawsBalance reports whether approving r debits the ledger.
func (r *Request) DrawsBalance() bool {
	return r.Type == TypeLeave && r.LeaveCategory != nil && r.LeaveCategory.Tracked()
}

func (r *Request) OverlapsRange(start, end calendar.Date) bool {
	return calendar.Overlaps(r.StartDate, r.EndDate, start, end)
}

func ToDataModel(r *Request) *requestDatamodel.AttendanceRequest {
	var category *string
	if r.LeaveCategory != nil {
		c := string(*r.LeaveCategory)
		category = &c
	}
	return &requestDatamodel.AttendanceRequest{
		ID:                 r.ID,
		UserID:             r.UserID,
		ReportingID:        r.ReportingID,
		Type:               string(r.Type),
		LeaveCategory:      category,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		UserRequestComment: r.UserRequestComment,
		Status:             string(r.Status),
		ManagerComment:     r.ManagerComment,
		DecidedBy:          r.DecidedBy,
		DecidedAt:          r.DecidedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func FromDataModel(m *requestDatamodel.AttendanceRequest) *Request {
	var category *ledger.Category
	if m.LeaveCategory != nil {
		c := ledger.Category(*m.LeaveCategory)
		category = &c
	}
	return &Request{
		ID:                 m.ID,
		UserID:             m.UserID,
		ReportingID:        m.ReportingID,
		Type:               Type(m.Type),
		LeaveCategory:      category,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		UserRequestComment: m.UserRequestComment,
		Status:             Status(m.Status),
		ManagerComment:     m.ManagerComment,
		DecidedBy:          m.DecidedBy,
		DecidedAt:          m.DecidedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func FromDataModelSlice(models []*requestDatamodel.AttendanceRequest) []*Request {
	result := make([]*Request, len(models))
	for i, m := range models {
		result[i] = FromDataModel(m)
	}
	return result
}
