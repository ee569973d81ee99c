package user

import (
	"strings"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
	"github.com/frahmantamala/attendance-management/internal/core/common/validation"
	"github.com/frahmantamala/attendance-management/internal/ledger"
)

// ProfileDTO carries the optional descriptive fields. Only non-nil fields are
// written on update.
type ProfileDTO struct {
	MobileNumber   *string  `json:"mobile_number,omitempty" validate:"omitempty,numeric,min=7,max=20"`
	Age            *int     `json:"age,omitempty" validate:"omitempty,gte=16,lte=100"`
	JoiningDate    *string  `json:"joining_date,omitempty" validate:"omitempty,isodate"`
	Experience     *float64 `json:"experience,omitempty" validate:"omitempty,gte=0,lte=60"`
	Department     *string  `json:"department,omitempty" validate:"omitempty,oneof=IT DEVELOPMENT MANAGEMENT HR LD FINANCE MARKETING"`
	EmploymentType *string  `json:"employment_type,omitempty" validate:"omitempty,oneof=FULL_TIME PART_TIME CONTRACT FREELANCE"`
}

// BalancesDTO overrides leave balances per category.
type BalancesDTO struct {
	Sick   *int `json:"SICK,omitempty" validate:"omitempty,gte=0"`
	Casual *int `json:"CASUAL,omitempty" validate:"omitempty,gte=0"`
	Earned *int `json:"EARNED,omitempty" validate:"omitempty,gte=0"`
}

func (b *BalancesDTO) Overrides() map[ledger.Category]*int {
	if b == nil {
		return nil
	}
	return map[ledger.Category]*int{
		ledger.CategorySick:   b.Sick,
		ledger.CategoryCasual: b.Casual,
		ledger.CategoryEarned: b.Earned,
	}
}

// CreateUserDTO represents the request payload for creating a user
type CreateUserDTO struct {
	Username    string       `json:"username" validate:"required,min=3,max=64"`
	Password    string       `json:"password" validate:"required,min=8,max=72"`
	Role        string       `json:"role" validate:"required,oneof=EMPLOYEE MANAGER ADMIN"`
	ReportingID *int64       `json:"reporting_id,omitempty" validate:"omitempty,gt=0"`
	Balances    *BalancesDTO `json:"leave_balances,omitempty"`
	ProfileDTO
}

func (dto *CreateUserDTO) Validate() *internal.AppError {
	dto.Username = strings.TrimSpace(dto.Username)
	return validation.ValidateStruct(dto)
}

// UpdateUserDTO represents the request payload for an administrative update
type UpdateUserDTO struct {
	Username    *string      `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Password    *string      `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role        *string      `json:"role,omitempty" validate:"omitempty,oneof=EMPLOYEE MANAGER ADMIN"`
	ReportingID *int64       `json:"reporting_id,omitempty" validate:"omitempty,gt=0"`
	IsActive    *bool        `json:"is_active,omitempty"`
	Balances    *BalancesDTO `json:"leave_balances,omitempty"`
	ProfileDTO
}

func (dto *UpdateUserDTO) Validate() *internal.AppError {
	if dto.Username != nil {
		trimmed := strings.TrimSpace(*dto.Username)
		dto.Username = &trimmed
	}
	return validation.ValidateStruct(dto)
}

// UpdateProfileDTO is what a user may change about itself.
type UpdateProfileDTO struct {
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	ProfileDTO
}

func (dto *UpdateProfileDTO) Validate() *internal.AppError {
	return validation.ValidateStruct(dto)
}

// apply copies the non-nil profile fields onto u and into the column map.
func (p ProfileDTO) apply(u *User, fields map[string]interface{}) {
	if p.MobileNumber != nil {
		u.MobileNumber = p.MobileNumber
		fields["mobile_number"] = *p.MobileNumber
	}
	if p.Age != nil {
		u.Age = p.Age
		fields["age"] = *p.Age
	}
	if p.JoiningDate != nil {
		d := calendar.MustParse(*p.JoiningDate)
		u.JoiningDate = &d
		fields["joining_date"] = d
	}
	if p.Experience != nil {
		u.Experience = p.Experience
		fields["experience"] = *p.Experience
	}
	if p.Department != nil {
		u.Department = p.Department
		fields["department"] = *p.Department
	}
	if p.EmploymentType != nil {
		u.EmploymentType = p.EmploymentType
		fields["employment_type"] = *p.EmploymentType
	}
}

// ListUsersQuery filters GET /users.
type ListUsersQuery struct {
	Role string `json:"role" validate:"omitempty,oneof=EMPLOYEE MANAGER ADMIN"`
}

func (q ListUsersQuery) Validate() *internal.AppError {
	return validation.ValidateStruct(q)
}
