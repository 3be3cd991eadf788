package models

import "time"

// User roles carried as the role claim in access tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is one registered account. Secret-bearing fields are excluded from
// JSON so a serialized user is already sanitized for API responses.
//
// The verification and reset token pairs are either both set or both nil.
// RefreshToken is "" when no session is active.
type User struct {
	ID                      string     `json:"id"`
	Username                string     `json:"username"`
	Email                   string     `json:"email"`
	FullName                string     `json:"fullName,omitempty"`
	Role                    string     `json:"role"`
	IsEmailVerified         bool       `json:"isEmailVerified"`
	PasswordHash            string     `json:"-"`
	RefreshToken            string     `json:"-"`
	EmailVerificationToken  *string    `json:"-"`
	EmailVerificationExpiry *time.Time `json:"-"`
	PasswordResetToken      *string    `json:"-"`
	PasswordResetExpiry     *time.Time `json:"-"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}
