package auth

import (
	"strings"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (d *LoginDTO) Validate() *internal.AppError {
	d.Username = strings.TrimSpace(d.Username)
	return validation.ValidateStruct(d)
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d *RefreshTokenDTO) Validate() *internal.AppError {
	return validation.ValidateStruct(d)
}
