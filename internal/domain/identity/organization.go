package identity

import (
	"strings"
	"time"

	"github.com/toneforge/backend/internal/domain/billing"
	"github.com/toneforge/backend/internal/domain/shared"
)

// Organization is the tenant of the system. Every template, brand voice,
// reply and usage counter belongs to exactly one organization.
type Organization struct {
	shared.BaseAggregateRoot
	Name             string
	PlanCode         billing.PlanCode
	StripeCustomerID string
}

// NewOrganization creates a new organization on the free plan
func NewOrganization(name string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if err := validateOrgName(name); err != nil {
		return nil, err
	}

	org := &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		PlanCode:          billing.PlanFree,
	}
	org.AddDomainEvent(NewOrganizationCreatedEvent(org.ID, name))
	return org, nil
}

// Rename changes the organization name
func (o *Organization) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateOrgName(name); err != nil {
		return err
	}
	o.Name = name
	o.UpdatedAt = time.Now()
	return nil
}

// SetPlan updates the plan code
func (o *Organization) SetPlan(plan billing.PlanCode) {
	o.PlanCode = billing.ParsePlanCode(plan.String())
	o.UpdatedAt = time.Now()
}

// SetStripeCustomerID links the organization to a billing provider customer
func (o *Organization) SetStripeCustomerID(customerID string) {
	o.StripeCustomerID = customerID
	o.UpdatedAt = time.Now()
}

// HasStripeCustomer returns true when a provider customer is linked
func (o *Organization) HasStripeCustomer() bool {
	return o.StripeCustomerID != ""
}

func validateOrgName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_ORG_NAME", "Organization name cannot be empty")
	}
	if len(name) > 120 {
		return shared.NewDomainError("INVALID_ORG_NAME", "Organization name cannot exceed 120 characters")
	}
	return nil
}
