package identity

import (
	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

// Event types published by the identity domain
const (
	EventTypeOrganizationCreated = "identity.organization_created"
	EventTypeUserRegistered      = "identity.user_registered"
)

// OrganizationCreatedEvent is published when a new organization is created
type OrganizationCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewOrganizationCreatedEvent creates an organization created event
func NewOrganizationCreatedEvent(orgID uuid.UUID, name string) *OrganizationCreatedEvent {
	return &OrganizationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganizationCreated, "Organization", orgID, orgID),
		Name:            name,
	}
}

// UserRegisteredEvent is published when a user signs up
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewUserRegisteredEvent creates a user registered event
func NewUserRegisteredEvent(userID, orgID uuid.UUID, email string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, "User", userID, orgID),
		Email:           email,
	}
}
