package dto

import (
	"github.com/spec-kit/ticket-portal/internal/domain"
)

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload for POST /auth/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ProfileRequest payload for POST /auth/profile.
type ProfileRequest struct {
	FullName   string `json:"fullName" validate:"required,min=2"`
	Nickname   string `json:"nickname" validate:"required,min=2"`
	BirthDay   int    `json:"birthDay" validate:"required,min=1,max=31"`
	BirthMonth int    `json:"birthMonth" validate:"required,min=1,max=12"`
	BirthYear  int    `json:"birthYear" validate:"required,min=1900,pastyear"`
	PixKey     string `json:"pixKey" validate:"required"`
	Whatsapp   string `json:"whatsapp" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
}

// Profile converts the request to the domain model.
func (r ProfileRequest) Profile() domain.Profile {
	return domain.Profile{
		FullName:   r.FullName,
		Nickname:   r.Nickname,
		BirthDay:   r.BirthDay,
		BirthMonth: r.BirthMonth,
		BirthYear:  r.BirthYear,
		PixKey:     r.PixKey,
		Whatsapp:   r.Whatsapp,
		Email:      r.Email,
	}
}

// RedirectResponse tells the browser where to go after a form.
type RedirectResponse struct {
	Redirect string `json:"redirect"`
}
