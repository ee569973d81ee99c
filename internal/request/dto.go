package request

import (
	"strings"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/common/calendar"
	"github.com/frahmantamala/attendance-management/internal/core/common/validation"
	"github.com/frahmantamala/attendance-management/internal/ledger"
)

// SubmitRequestDTO represents the request payload for submitting a request
type SubmitRequestDTO struct {
	Type          string  `json:"type" validate:"required,oneof=ATTENDANCE LEAVE"`
	LeaveCategory *string `json:"leave_category,omitempty" validate:"omitempty,oneof=SICK CASUAL EARNED LWP"`
	StartDate     string  `json:"start_date" validate:"required,isodate"`
	EndDate       string  `json:"end_date" validate:"required,isodate"`
	Comment       *string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

// Submission is a validated SubmitRequestDTO.
type Submission struct {
	Type          Type
	LeaveCategory *ledger.Category
	StartDate     calendar.Date
	EndDate       calendar.Date
	Comment       *string
}

// Validate checks enums and dates, and that a category is present iff the
// request is a leave.
func (dto SubmitRequestDTO) Validate() (*Submission, *internal.AppError) {
	if appErr := validation.ValidateStruct(dto); appErr != nil {
		return nil, appErr
	}

	sub := &Submission{Type: Type(dto.Type), Comment: trimmed(dto.Comment)}

	switch sub.Type {
	case TypeLeave:
		if dto.LeaveCategory == nil || *dto.LeaveCategory == "" {
			return nil, internal.NewValidationFieldError("leave_category",
				"leave_category is required for a LEAVE request", internal.ErrCodeInvalidCategory)
		}
		c, err := ledger.ParseCategory(*dto.LeaveCategory)
		if err != nil {
			return nil, internal.NewValidationFieldError("leave_category", err.Error(), internal.ErrCodeInvalidCategory)
		}
		sub.LeaveCategory = &c
	case TypeAttendance:
		if dto.LeaveCategory != nil && *dto.LeaveCategory != "" {
			return nil, internal.NewValidationFieldError("leave_category",
				"leave_category is only allowed on a LEAVE request", internal.ErrCodeInvalidCategory)
		}
	}

	var err error
	if sub.StartDate, err = calendar.Parse(dto.StartDate); err != nil {
		return nil, internal.NewValidationFieldError("start_date", err.Error(), internal.ErrCodeInvalidDate)
	}
	if sub.EndDate, err = calendar.Parse(dto.EndDate); err != nil {
		return nil, internal.NewValidationFieldError("end_date", err.Error(), internal.ErrCodeInvalidDate)
	}
	if appErr := validation.DateRange(sub.StartDate, sub.EndDate); appErr != nil {
		return nil, appErr
	}
	return sub, nil
}

// DecideRequestDTO represents the request payload for approving or rejecting
type DecideRequestDTO struct {
	Decision string  `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Comment  *string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

func (dto DecideRequestDTO) Validate() *internal.AppError {
	return validation.ValidateStruct(dto)
}

// PrecheckQuery is the advisory overlap check for a prospective range.
type PrecheckQuery struct {
	StartDate string `json:"start" validate:"required,isodate"`
	EndDate   string `json:"end" validate:"required,isodate"`
}

func (q PrecheckQuery) Range() (calendar.Date, calendar.Date, *internal.AppError) {
	if appErr := validation.ValidateStruct(q); appErr != nil {
		return calendar.Date{}, calendar.Date{}, appErr
	}
	start := calendar.MustParse(q.StartDate)
	end := calendar.MustParse(q.EndDate)
	if appErr := validation.DateRange(start, end); appErr != nil {
		return calendar.Date{}, calendar.Date{}, appErr
	}
	return start, end, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
