package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership grants a user one role within one organization
type Membership struct {
	ID             string     `json:"id" db:"id"`
	UserID         string     `json:"user_id" db:"user_id"`
	OrganizationID string     `json:"organization_id" db:"organization_id"`
	Role           Role       `json:"role" db:"role"`
	InvitedBy      *string    `json:"invited_by,omitempty" db:"invited_by"`
	InvitedAt      time.Time  `json:"invited_at" db:"invited_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	IsActive       bool       `json:"is_active" db:"is_active"`

	// Organization is a copy of the joined organization row, when loaded.
	Organization *Organization `json:"organization,omitempty" db:"-"`
}

// TableName returns the table name for the Membership model
func (Membership) TableName() string {
	return "organization_memberships"
}

// NewMembership creates an active, already-accepted membership
func NewMembership(userID, orgID string, role Role, invitedBy string) *Membership {
	now := time.Now().UTC()
	m := &Membership{
		ID:             uuid.NewString(),
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		InvitedAt:      now,
		AcceptedAt:     &now,
		CreatedAt:      now,
		UpdatedAt:      now,
		IsActive:       true,
	}
	if invitedBy != "" {
		m.InvitedBy = &invitedBy
	}
	return m
}

// MemberWithProfile is an organization member as listed to org admins
type MemberWithProfile struct {
	Membership
	Profile *Profile `json:"user_profile,omitempty"`
}
