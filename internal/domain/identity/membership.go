package identity

import (
	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

// MembershipRole defines what a user may do inside an organization
type MembershipRole string

const (
	RoleOwner  MembershipRole = "OWNER"
	RoleAdmin  MembershipRole = "ADMIN"
	RoleMember MembershipRole = "MEMBER"
)

// IsValid returns true for known roles
func (r MembershipRole) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManageBilling returns true for roles allowed to start checkout or
// open the billing portal
func (r MembershipRole) CanManageBilling() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Membership links a user to an organization with a role
type Membership struct {
	shared.BaseAggregateRoot
	OrgID  uuid.UUID
	UserID uuid.UUID
	Role   MembershipRole
}

// NewMembership creates a membership
func NewMembership(orgID, userID uuid.UUID, role MembershipRole) (*Membership, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Organization ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown membership role")
	}

	return &Membership{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrgID:             orgID,
		UserID:            userID,
		Role:              role,
	}, nil
}
