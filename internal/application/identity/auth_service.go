package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"github.com/toneforge/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for both unknown emails and wrong
// passwords so login failures do not reveal which accounts exist
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Email or password is incorrect")

const minPasswordLength = 8

// AuthService handles registration, login and session lifecycle
type AuthService struct {
	userRepo       identity.UserRepository
	orgRepo        identity.OrganizationRepository
	membershipRepo identity.MembershipRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	eventBus       shared.EventPublisher
	logger         *zap.Logger
}

// NewAuthService creates an auth service
func NewAuthService(
	userRepo identity.UserRepository,
	orgRepo identity.OrganizationRepository,
	membershipRepo identity.MembershipRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
		jwtService:     jwtService,
		blacklist:      blacklist,
		eventBus:       eventBus,
		logger:         logger,
	}
}

// RegisterInput contains registration data
type RegisterInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
	OrgName     string `json:"org_name" binding:"required"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	UserID   uuid.UUID       `json:"user_id"`
	OrgID    uuid.UUID       `json:"org_id"`
	Email    string          `json:"email"`
	Role     string          `json:"role"`
	PlanCode string          `json:"plan_code"`
	Tokens   *auth.TokenPair `json:"tokens"`
}

// Register creates a user with a fresh organization on the free plan. The
// registering user becomes the organization's owner.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if len(input.Password) < minPasswordLength {
		return nil, shared.NewDomainError("WEAK_PASSWORD", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	email := identity.NormalizeEmail(input.Email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := identity.NewUser(email, string(hash), input.DisplayName)
	if err != nil {
		return nil, err
	}

	org, err := identity.NewOrganization(input.OrgName)
	if err != nil {
		return nil, err
	}

	membership, err := identity.NewMembership(org.ID, user.ID, identity.RoleOwner)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to save organization: %w", err)
	}
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to save membership: %w", err)
	}

	s.publishEvents(ctx, org)

	tokens, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		OrgID:  org.ID,
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(membership.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("org_id", org.ID.String()))

	return &AuthResult{
		UserID:   user.ID,
		OrgID:    org.ID,
		Email:    user.Email,
		Role:     string(membership.Role),
		PlanCode: org.PlanCode.String(),
		Tokens:   tokens,
	}, nil
}

// Login authenticates a user and issues a token pair scoped to their
// first organization
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	memberships, err := s.membershipRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	if len(memberships) == 0 {
		return nil, shared.NewDomainError("NO_ORGANIZATION", "User does not belong to any organization")
	}
	membership := memberships[0]

	org, err := s.orgRepo.FindByID(ctx, membership.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	tokens, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		OrgID:  membership.OrgID,
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(membership.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("org_id", membership.OrgID.String()))

	return &AuthResult{
		UserID:   user.ID,
		OrgID:    membership.OrgID,
		Email:    user.Email,
		Role:     string(membership.Role),
		PlanCode: org.PlanCode.String(),
		Tokens:   tokens,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair. Email and role
// are re-read from storage since refresh tokens carry minimal claims.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.checkRevocation(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, auth.ErrInvalidClaims
	}
	orgID, err := claims.GetOrgUUID()
	if err != nil {
		return nil, auth.ErrInvalidClaims
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	membership, err := s.membershipRepo.FindByOrgAndUser(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrForbidden
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	return s.jwtService.RefreshTokenPair(refreshToken, user.Email, string(membership.Role))
}

// Logout revokes the presented access token for its remaining lifetime
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		// An expired or malformed token needs no revocation
		return nil
	}

	if s.blacklist == nil {
		return nil
	}

	ttl := claims.GetRemainingTTL()
	if ttl <= 0 {
		return nil
	}

	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.logger.Info("User logged out", zap.String("user_id", claims.UserID))
	return nil
}

// Profile describes the authenticated user within their organization
type Profile struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	OrgID       uuid.UUID `json:"org_id"`
	OrgName     string    `json:"org_name"`
	Role        string    `json:"role"`
	PlanCode    string    `json:"plan_code"`
}

// Me returns the profile for an authenticated user in an organization
func (s *AuthService) Me(ctx context.Context, orgID, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	membership, err := s.membershipRepo.FindByOrgAndUser(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrForbidden
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	return &Profile{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		OrgID:       org.ID,
		OrgName:     org.Name,
		Role:        string(membership.Role),
		PlanCode:    org.PlanCode.String(),
	}, nil
}

// checkRevocation rejects tokens that were revoked after issuance
func (s *AuthService) checkRevocation(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil {
		return nil
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return auth.ErrTokenBlacklisted
	}

	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return fmt.Errorf("failed to check user token invalidation: %w", err)
	}
	if invalidated {
		return auth.ErrTokenBlacklisted
	}
	return nil
}

func (s *AuthService) publishEvents(ctx context.Context, org *identity.Organization) {
	if s.eventBus == nil {
		return
	}
	events := org.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events",
			zap.String("org_id", org.ID.String()),
			zap.Error(err))
	}
	org.ClearDomainEvents()
}
