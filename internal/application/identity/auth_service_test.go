package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toneforge/backend/internal/domain/identity"
	"github.com/toneforge/backend/internal/domain/shared"
	"github.com/toneforge/backend/internal/infrastructure/auth"
	"github.com/toneforge/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*identity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*identity.User)}
}

func (r *fakeUserRepo) Save(_ context.Context, user *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *identity.User) error {
	return r.Save(ctx, user)
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

type fakeOrgRepo struct {
	mu   sync.RWMutex
	orgs map[uuid.UUID]*identity.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[uuid.UUID]*identity.Organization)}
}

func (r *fakeOrgRepo) Save(_ context.Context, org *identity.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeOrgRepo) Update(ctx context.Context, org *identity.Organization) error {
	return r.Save(ctx, org)
}

func (r *fakeOrgRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.orgs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return org, nil
}

func (r *fakeOrgRepo) FindByStripeCustomerID(_ context.Context, customerID string) (*identity.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, org := range r.orgs {
		if org.StripeCustomerID == customerID {
			return org, nil
		}
	}
	return nil, shared.ErrNotFound
}

type fakeMembershipRepo struct {
	mu          sync.RWMutex
	memberships []*identity.Membership
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{}
}

func (r *fakeMembershipRepo) Save(_ context.Context, membership *identity.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memberships = append(r.memberships, membership)
	return nil
}

func (r *fakeMembershipRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]*identity.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*identity.Membership
	for _, m := range r.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) FindByOrgAndUser(_ context.Context, orgID, userID uuid.UUID) (*identity.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.memberships {
		if m.OrgID == orgID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, shared.ErrNotFound
}

var (
	_ identity.UserRepository         = (*fakeUserRepo)(nil)
	_ identity.OrganizationRepository = (*fakeOrgRepo)(nil)
	_ identity.MembershipRepository   = (*fakeMembershipRepo)(nil)
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-for-unit-tests",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "toneforge-test",
		MaxRefreshCount:        10,
	})
}

type authFixture struct {
	userRepo       *fakeUserRepo
	orgRepo        *fakeOrgRepo
	membershipRepo *fakeMembershipRepo
	blacklist      *auth.InMemoryTokenBlacklist
	service        *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	userRepo := newFakeUserRepo()
	orgRepo := newFakeOrgRepo()
	membershipRepo := newFakeMembershipRepo()
	blacklist := auth.NewInMemoryTokenBlacklist()
	service := NewAuthService(userRepo, orgRepo, membershipRepo, newTestJWTService(), blacklist, nil, zap.NewNop())
	return &authFixture{
		userRepo:       userRepo,
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
		blacklist:      blacklist,
		service:        service,
	}
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:       "owner@acme.test",
		Password:    "correct-horse-battery",
		DisplayName: "Acme Owner",
		OrgName:     "Acme Support",
	}
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	assert.Equal(t, "owner@acme.test", result.Email)
	assert.Equal(t, string(identity.RoleOwner), result.Role)
	assert.Equal(t, "FREE", result.PlanCode)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	org, err := f.orgRepo.FindByID(context.Background(), result.OrgID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Support", org.Name)

	membership, err := f.membershipRepo.FindByOrgAndUser(context.Background(), result.OrgID, result.UserID)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleOwner, membership.Role)
}

func TestAuthService_Register_NormalizesEmail(t *testing.T) {
	f := newAuthFixture(t)

	input := validRegisterInput()
	input.Email = "  Owner@Acme.Test "
	result, err := f.service.Register(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "owner@acme.test", result.Email)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), validRegisterInput())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EMAIL_TAKEN", domainErr.Code)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	f := newAuthFixture(t)

	input := validRegisterInput()
	input.Password = "short"
	_, err := f.service.Register(context.Background(), input)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "WEAK_PASSWORD", domainErr.Code)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	result, err := f.service.Login(context.Background(), "owner@acme.test", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, result.UserID)
	assert.Equal(t, registered.OrgID, result.OrgID)
	assert.NotEmpty(t, result.Tokens.AccessToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, err = f.service.Login(context.Background(), "owner@acme.test", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Login(context.Background(), "nobody@acme.test", "whatever-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	pair, err := f.service.Refresh(context.Background(), registered.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, err = f.service.Refresh(context.Background(), registered.Tokens.AccessToken)
	assert.Error(t, err)
}

func TestAuthService_Logout_RevokesToken(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), registered.Tokens.AccessToken))

	claims, err := newTestJWTService().ValidateAccessToken(registered.Tokens.AccessToken)
	require.NoError(t, err)
	revoked, err := f.blacklist.IsBlacklisted(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	profile, err := f.service.Me(context.Background(), registered.OrgID, registered.UserID)
	require.NoError(t, err)
	assert.Equal(t, "owner@acme.test", profile.Email)
	assert.Equal(t, "Acme Support", profile.OrgName)
	assert.Equal(t, string(identity.RoleOwner), profile.Role)
	assert.Equal(t, "FREE", profile.PlanCode)
}

func TestAuthService_Me_NotAMember(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	other := validRegisterInput()
	other.Email = "intruder@other.test"
	other.OrgName = "Other Org"
	intruder, err := f.service.Register(context.Background(), other)
	require.NoError(t, err)

	_, err = f.service.Me(context.Background(), registered.OrgID, intruder.UserID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestOrganizationService_Rename(t *testing.T) {
	f := newAuthFixture(t)
	orgService := NewOrganizationService(f.orgRepo, f.userRepo, f.membershipRepo, zap.NewNop())

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	view, err := orgService.Rename(context.Background(), registered.OrgID, registered.UserID, "Acme Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Acme Renamed", view.Name)
}

func TestOrganizationService_Rename_MemberForbidden(t *testing.T) {
	f := newAuthFixture(t)
	orgService := NewOrganizationService(f.orgRepo, f.userRepo, f.membershipRepo, zap.NewNop())

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	memberUser, err := identity.NewUser("member@acme.test", "hash", "Member")
	require.NoError(t, err)
	require.NoError(t, f.userRepo.Save(context.Background(), memberUser))
	membership, err := identity.NewMembership(registered.OrgID, memberUser.ID, identity.RoleMember)
	require.NoError(t, err)
	require.NoError(t, f.membershipRepo.Save(context.Background(), membership))

	_, err = orgService.Rename(context.Background(), registered.OrgID, memberUser.ID, "Hijacked")
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestOrganizationService_AddMember(t *testing.T) {
	f := newAuthFixture(t)
	orgService := NewOrganizationService(f.orgRepo, f.userRepo, f.membershipRepo, zap.NewNop())

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	invitee, err := identity.NewUser("invitee@acme.test", "hash", "Invitee")
	require.NoError(t, err)
	require.NoError(t, f.userRepo.Save(context.Background(), invitee))

	member, err := orgService.AddMember(context.Background(), registered.OrgID, registered.UserID, "invitee@acme.test", identity.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, string(identity.RoleMember), member.Role)

	_, err = orgService.AddMember(context.Background(), registered.OrgID, registered.UserID, "invitee@acme.test", identity.RoleMember)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_MEMBER", domainErr.Code)
}

func TestOrganizationService_AddMember_CannotGrantOwner(t *testing.T) {
	f := newAuthFixture(t)
	orgService := NewOrganizationService(f.orgRepo, f.userRepo, f.membershipRepo, zap.NewNop())

	registered, err := f.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, err = orgService.AddMember(context.Background(), registered.OrgID, registered.UserID, "anyone@acme.test", identity.RoleOwner)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_ROLE", domainErr.Code)
}
