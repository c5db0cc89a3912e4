package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier is an organization's billing plan
type SubscriptionTier string

const (
	TierFree         SubscriptionTier = "free"
	TierStarter      SubscriptionTier = "starter"
	TierProfessional SubscriptionTier = "professional"
	TierEnterprise   SubscriptionTier = "enterprise"
)

// DefaultMaxUsers is the seat limit of a newly created organization
const DefaultMaxUsers = 5

// Valid reports whether t is a known tier
func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierFree, TierStarter, TierProfessional, TierEnterprise:
		return true
	default:
		return false
	}
}

// Settings is an organization's free-form settings document, stored as JSONB
type Settings map[string]interface{}

// Value implements driver.Valuer
func (s Settings) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner
func (s *Settings) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = Settings{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Settings", src)
	}
	out := Settings{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("failed to decode settings: %w", err)
		}
	}
	*s = out
	return nil
}

// Organization represents a tenant in the multi-tenant system
type Organization struct {
	ID               string           `json:"id" db:"id"`
	Name             string           `json:"name" db:"name"`
	Domain           *string          `json:"domain,omitempty" db:"domain"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
	IsActive         bool             `json:"is_active" db:"is_active"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier" db:"subscription_tier"`
	MaxUsers         int              `json:"max_users" db:"max_users"`
	Settings         Settings         `json:"settings" db:"settings"`
}

// TableName returns the table name for the Organization model
func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization creates a new active organization on the free tier
func NewOrganization(name string, domain *string) *Organization {
	now := time.Now().UTC()
	return &Organization{
		ID:               uuid.NewString(),
		Name:             name,
		Domain:           domain,
		CreatedAt:        now,
		UpdatedAt:        now,
		IsActive:         true,
		SubscriptionTier: TierFree,
		MaxUsers:         DefaultMaxUsers,
		Settings:         Settings{},
	}
}
