package auth

import "github.com/retaildesk/retaildesk-backend/internal/users"

// LoginRequest carries the credentials for a login attempt.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// RegisterRequest creates a new account. Role defaults to seller when omitted.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=admin seller"`
}

// ForgotPasswordRequest starts the reset flow for an email address.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest consumes a reset token and sets a new password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string        `json:"token"`
	User  users.UserDTO `json:"user"`
}

// ForgotPasswordResponse always reports success; the link is only populated
// when the account exists so enumeration stays impossible from the message.
type ForgotPasswordResponse struct {
	Message   string `json:"message"`
	ResetLink string `json:"resetLink,omitempty"`
}
