package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrganizationService manages organization settings and memberships
type OrganizationService struct {
	orgRepo        identity.OrganizationRepository
	userRepo       identity.UserRepository
	membershipRepo identity.MembershipRepository
	logger         *zap.Logger
}

// NewOrganizationService creates an organization service
func NewOrganizationService(
	orgRepo identity.OrganizationRepository,
	userRepo identity.UserRepository,
	membershipRepo identity.MembershipRepository,
	logger *zap.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:        orgRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
	}
}

// OrganizationView is the read model returned to API consumers
type OrganizationView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	PlanCode string    `json:"plan_code"`
}

// OrgMembershipView pairs an organization with the caller's role in it
type OrgMembershipView struct {
	OrganizationView
	Role string `json:"role"`
}

// ListForUser returns every organization the user belongs to, oldest
// membership first
func (s *OrganizationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrgMembershipView, error) {
	memberships, err := s.membershipRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	views := make([]OrgMembershipView, 0, len(memberships))
	for _, m := range memberships {
		org, err := s.orgRepo.FindByID(ctx, m.OrgID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("Membership points at missing organization",
					zap.String("org_id", m.OrgID.String()),
					zap.String("user_id", userID.String()))
				continue
			}
			return nil, fmt.Errorf("failed to load organization: %w", err)
		}
		views = append(views, OrgMembershipView{
			OrganizationView: *toOrganizationView(org),
			Role:             string(m.Role),
		})
	}
	return views, nil
}

// Create starts a new organization on the free plan with the caller as owner
func (s *OrganizationService) Create(ctx context.Context, userID uuid.UUID, name string) (*OrganizationView, error) {
	org, err := identity.NewOrganization(name)
	if err != nil {
		return nil, err
	}

	membership, err := identity.NewMembership(org.ID, userID, identity.RoleOwner)
	if err != nil {
		return nil, err
	}

	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to save organization: %w", err)
	}
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to save membership: %w", err)
	}

	s.logger.Info("Organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("user_id", userID.String()))
	return toOrganizationView(org), nil
}

// Get returns the organization for an authenticated member
func (s *OrganizationService) Get(ctx context.Context, orgID, userID uuid.UUID) (*OrganizationView, error) {
	if _, err := s.requireMembership(ctx, orgID, userID); err != nil {
		return nil, err
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	return toOrganizationView(org), nil
}

// Rename changes the organization name. Only owners and admins may rename.
func (s *OrganizationService) Rename(ctx context.Context, orgID, userID uuid.UUID, name string) (*OrganizationView, error) {
	membership, err := s.requireMembership(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if !membership.Role.CanManageBilling() {
		return nil, shared.ErrForbidden
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	if err := org.Rename(name); err != nil {
		return nil, err
	}
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	s.logger.Info("Organization renamed",
		zap.String("org_id", orgID.String()),
		zap.String("name", org.Name))
	return toOrganizationView(org), nil
}

// MemberView describes one member of an organization
type MemberView struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
}

// AddMember invites an existing user into the organization. Only owners
// and admins may add members, and no one can grant the owner role.
func (s *OrganizationService) AddMember(ctx context.Context, orgID, actorID uuid.UUID, email string, role identity.MembershipRole) (*MemberView, error) {
	actor, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanManageBilling() {
		return nil, shared.ErrForbidden
	}
	if role == identity.RoleOwner {
		return nil, shared.NewDomainError("INVALID_ROLE", "Ownership cannot be granted through member invites")
	}

	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "No account exists for this email")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if _, err := s.membershipRepo.FindByOrgAndUser(ctx, orgID, user.ID); err == nil {
		return nil, shared.NewDomainError("ALREADY_MEMBER", "User is already a member of this organization")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	membership, err := identity.NewMembership(orgID, user.ID, role)
	if err != nil {
		return nil, err
	}
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to save membership: %w", err)
	}

	s.logger.Info("Member added to organization",
		zap.String("org_id", orgID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)))

	return &MemberView{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(role),
	}, nil
}

func (s *OrganizationService) requireMembership(ctx context.Context, orgID, userID uuid.UUID) (*identity.Membership, error) {
	membership, err := s.membershipRepo.FindByOrgAndUser(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrForbidden
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return membership, nil
}

func toOrganizationView(org *identity.Organization) *OrganizationView {
	return &OrganizationView{
		ID:       org.ID,
		Name:     org.Name,
		PlanCode: org.PlanCode.String(),
	}
}
