package user

import (
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
)

type User struct {
	ID             int64          `gorm:"primaryKey"`
	Username       string         `gorm:"column:username;uniqueIndex;not null"`
	PasswordHash   string         `gorm:"column:password_hash;not null"`
	Role           string         `gorm:"column:role;not null"`
	ReportingID    *int64         `gorm:"column:reporting_id;index"`
	IsActive       bool           `gorm:"column:is_active;not null"`
	MobileNumber   *string        `gorm:"column:mobile_number"`
	Age            *int           `gorm:"column:age"`
	JoiningDate    *calendar.Date `gorm:"column:joining_date;type:date"`
	Experience     *float64       `gorm:"column:experience"`
	Department     *string        `gorm:"column:department"`
	EmploymentType *string        `gorm:"column:employment_type"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string {
	return "users"
}

type LeaveBalance struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Category  string    `gorm:"column:category;primaryKey"`
	Days      int       `gorm:"column:days;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}
