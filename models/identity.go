package models

// Identity is the per-request view of an authenticated caller: the verified
// token subject, their profile and their active memberships. It is built once
// per request and never shared or mutated afterwards, so every authorization
// question asked during a request sees the same data.
type Identity struct {
	ID          string                 `json:"id"`
	Email       string                 `json:"email"`
	Profile     *Profile               `json:"profile"`
	Memberships []*Membership          `json:"memberships"`
	Claims      map[string]interface{} `json:"-"`
}

// MembershipFor returns the active membership in orgID, or nil. If the store
// ever returned more than one, the first in fetch order wins.
func (i *Identity) MembershipFor(orgID string) *Membership {
	for _, m := range i.Memberships {
		if m.OrganizationID == orgID && m.IsActive {
			return m
		}
	}
	return nil
}

// HasMinimumRole reports whether the caller holds at least min in orgID.
func (i *Identity) HasMinimumRole(orgID string, min Role) bool {
	m := i.MembershipFor(orgID)
	if m == nil {
		return false
	}
	return m.Role.AtLeast(min)
}

// HasPlatformRole reports whether any membership carries a SaaS staff role.
// Platform roles apply across organizations regardless of which organization
// row the membership happens to be attached to.
func (i *Identity) HasPlatformRole() bool {
	for _, m := range i.Memberships {
		if m.Role.IsPlatform() {
			return true
		}
	}
	return false
}

// Organizations returns the organizations embedded in the caller's
// memberships, in membership order. Memberships without a loaded
// organization are skipped.
func (i *Identity) Organizations() []*Organization {
	orgs := make([]*Organization, 0, len(i.Memberships))
	for _, m := range i.Memberships {
		if m.Organization != nil {
			orgs = append(orgs, m.Organization)
		}
	}
	return orgs
}
