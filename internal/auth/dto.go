package auth

import (
	"strings"

	errors "github.com/frahmantamala/iyzipay-checkout/internal"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d LoginDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return errors.NewValidationFieldError("email", "email is required", errors.ErrCodeMissingParameter)
	}
	if d.Password == "" {
		return errors.NewValidationFieldError("password", "password is required", errors.ErrCodeMissingParameter)
	}
	return nil
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return errors.NewValidationFieldError("refresh_token", "refresh_token is required", errors.ErrCodeMissingParameter)
	}
	return nil
}
