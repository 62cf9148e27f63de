package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/session"
	"github.com/trezcool/campus/core/user"
)

type (
	// envelope wraps every API response.
	envelope struct {
		Success bool              `json:"success"`
		Message string            `json:"message,omitempty"`
		Data    interface{}       `json:"data,omitempty"`
		Errors  map[string]string `json:"errors,omitempty"`
	}

	LoginRequest struct {
		Email      string `json:"email" validate:"required,email"`
		Password   string `json:"password" validate:"required"`
		RememberMe bool   `json:"rememberMe"`
	}

	RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	LogoutRequest struct {
		RefreshToken string `json:"refreshToken"`
	}

	AuthResponse struct {
		User         user.User       `json:"user"`
		Profile      session.Profile `json:"profile"`
		Token        string          `json:"token,omitempty"`
		RefreshToken string          `json:"refreshToken,omitempty"`
	}

	TokenResponse struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
)

func (data *LoginRequest) Validate(validate *validator.Validate) error {
	data.Email = core.CleanString(data.Email, true)
	return validate.Struct(data)
}

func (data *RefreshRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(data)
}

func ok(msg string, data interface{}) envelope {
	return envelope{Success: true, Message: msg, Data: data}
}
