package user

import (
	"time"

	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
	userDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/ledger"
)

const (
	DepartmentIT          = "IT"
	DepartmentDevelopment = "DEVELOPMENT"
	DepartmentManagement  = "MANAGEMENT"
	DepartmentHR          = "HR"
	DepartmentLD          = "LD"
	DepartmentFinance     = "FINANCE"
	DepartmentMarketing   = "MARKETING"
)

const (
	EmploymentFullTime  = "FULL_TIME"
	EmploymentPartTime  = "PART_TIME"
	EmploymentContract  = "CONTRACT"
	EmploymentFreelance = "FREELANCE"
)

type User struct {
	ID             int64           `json:"id"`
	Username       string          `json:"username"`
	PasswordHash   string          `json:"-"`
	Role           coreuser.Role   `json:"role"`
	ReportingID    *int64          `json:"reporting_id,omitempty"`
	IsActive       bool            `json:"is_active"`
	MobileNumber   *string         `json:"mobile_number,omitempty"`
	Age            *int            `json:"age,omitempty"`
	JoiningDate    *calendar.Date  `json:"joining_date,omitempty"`
	Experience     *float64        `json:"experience,omitempty"`
	Department     *string         `json:"department,omitempty"`
	EmploymentType *string         `json:"employment_type,omitempty"`
	Balances       ledger.Balances `json:"leave_balances,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (u *User) Actor() *coreuser.Actor {
	return &coreuser.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

// ReportsTo reports whether managerID is u's direct supervisor.
func (u *User) ReportsTo(managerID int64) bool {
	return u.ReportingID != nil && *u.ReportingID == managerID
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:             u.ID,
		Username:       u.Username,
		PasswordHash:   u.PasswordHash,
		Role:           string(u.Role),
		ReportingID:    u.ReportingID,
		IsActive:       u.IsActive,
		MobileNumber:   u.MobileNumber,
		Age:            u.Age,
		JoiningDate:    u.JoiningDate,
		Experience:     u.Experience,
		Department:     u.Department,
		EmploymentType: u.EmploymentType,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:             u.ID,
		Username:       u.Username,
		PasswordHash:   u.PasswordHash,
		Role:           coreuser.Role(u.Role),
		ReportingID:    u.ReportingID,
		IsActive:       u.IsActive,
		MobileNumber:   u.MobileNumber,
		Age:            u.Age,
		JoiningDate:    u.JoiningDate,
		Experience:     u.Experience,
		Department:     u.Department,
		EmploymentType: u.EmploymentType,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	result := make([]*User, len(users))
	for i, u := range users {
		result[i] = FromDataModel(u)
	}
	return result
}
