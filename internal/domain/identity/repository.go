package identity

import (
	"context"

	"github.com/google/uuid"
)

// OrganizationRepository persists organizations
type OrganizationRepository interface {
	Save(ctx context.Context, org *Organization) error
	Update(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*Organization, error)
}

// UserRepository persists users
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByEmail returns shared.ErrNotFound when no user matches
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// MembershipRepository persists org memberships
type MembershipRepository interface {
	Save(ctx context.Context, membership *Membership) error
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Membership, error)
	FindByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*Membership, error)
}
