package models

import (
	"time"
)

// Profile is a user's profile row, keyed by the auth provider's subject id
type Profile struct {
	ID        string     `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	FirstName *string    `json:"first_name,omitempty" db:"first_name"`
	LastName  *string    `json:"last_name,omitempty" db:"last_name"`
	AvatarURL *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	Phone     *string    `json:"phone,omitempty" db:"phone"`
	Timezone  string     `json:"timezone" db:"timezone"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
	IsActive  bool       `json:"is_active" db:"is_active"`
}

// DefaultTimezone is used when a profile has no timezone set
const DefaultTimezone = "UTC"

// TableName returns the table name for the Profile model
func (Profile) TableName() string {
	return "user_profiles"
}

// FullName joins first and last name, falling back to whichever is set and
// finally to the email address.
func (p *Profile) FullName() string {
	first, last := deref(p.FirstName), deref(p.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	default:
		return p.Email
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
