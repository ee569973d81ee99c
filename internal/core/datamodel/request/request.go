package request

import (
	"time"

	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
)

type AttendanceRequest struct {
	ID                 int64         `gorm:"primaryKey"`
	UserID             int64         `gorm:"column:user_id;not null;index"`
	ReportingID        *int64        `gorm:"column:reporting_id"`
	Type               string        `gorm:"column:type;not null"`
	LeaveCategory      *string       `gorm:"column:leave_category"`
	StartDate          calendar.Date `gorm:"column:start_date;type:date;not null"`
	EndDate            calendar.Date `gorm:"column:end_date;type:date;not null"`
	UserRequestComment *string       `gorm:"column:user_request_comment"`
	Status             string        `gorm:"column:status;not null;index"`
	ManagerComment     *string       `gorm:"column:manager_comment"`
	DecidedBy          *int64        `gorm:"column:decided_by"`
	DecidedAt          *time.Time    `gorm:"column:decided_at"`
	CreatedAt          time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (AttendanceRequest) TableName() string {
	return "attendance_requests"
}
