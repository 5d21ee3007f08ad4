package handler

import "time"

// --- Request types ---

type createUserRequest struct {
	FirstName       string `json:"first_name"       validate:"required,min=2"`
	LastName        string `json:"last_name"        validate:"required,min=2"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Role            string `json:"role"             validate:"omitempty,oneof=Administrator Client"`
}

type updateUserRequest struct {
	FirstName string `json:"first_name" validate:"omitempty,min=2"`
	LastName  string `json:"last_name"  validate:"omitempty,min=2"`
	Email     string `json:"email"      validate:"omitempty,email"`
	// Password is bound only to reject attempts to change it here.
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract is not coupled to
// internal domain changes. The password hash has no field here at all.

type userResponse struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type userEnvelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	User    *userResponse `json:"user"`
}

type userListEnvelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Users   []*userResponse `json:"users"`
}

type loginEnvelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	User    *userResponse `json:"user"`
	Token   string        `json:"token"`
}
