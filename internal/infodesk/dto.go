package infodesk

import (
	"strings"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/common/validation"
)

type SubmitFeedbackDTO struct {
	Feedback string `json:"feedback" validate:"required,max=2000"`
}

func (dto *SubmitFeedbackDTO) Validate() *internal.AppError {
	dto.Feedback = strings.TrimSpace(dto.Feedback)
	return validation.ValidateStruct(dto)
}

// SubmitInfoRequestDTO asks HR for something, e.g. a salary slip or a tax form.
type SubmitInfoRequestDTO struct {
	RequestType        string `json:"request_type" validate:"required,max=100"`
	RequestDescription string `json:"request_description" validate:"required,max=2000"`
}

func (dto *SubmitInfoRequestDTO) Validate() *internal.AppError {
	dto.RequestType = strings.TrimSpace(dto.RequestType)
	dto.RequestDescription = strings.TrimSpace(dto.RequestDescription)
	return validation.ValidateStruct(dto)
}
