package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gescom/backend/internal/domain/identity"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

var _ identity.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*identity.User], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*identity.User]), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockTokenIssuer is a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

var _ TokenIssuer = (*MockTokenIssuer)(nil)

func (m *MockTokenIssuer) Issue(user *identity.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockResetTokenStore is a mock implementation of ResetTokenStore
type MockResetTokenStore struct {
	mock.Mock
}

var _ ResetTokenStore = (*MockResetTokenStore)(nil)

func (m *MockResetTokenStore) Store(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, token, userID, ttl)
	return args.Error(0)
}

func (m *MockResetTokenStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type authFixture struct {
	userRepo   *MockUserRepository
	issuer     *MockTokenIssuer
	resetStore *MockResetTokenStore
	service    *AuthService
}

func newAuthFixture() *authFixture {
	userRepo := new(MockUserRepository)
	issuer := new(MockTokenIssuer)
	resetStore := new(MockResetTokenStore)
	return &authFixture{
		userRepo:   userRepo,
		issuer:     issuer,
		resetStore: resetStore,
		service:    NewAuthService(userRepo, issuer, resetStore),
	}
}

func testUser(t *testing.T, password string) *identity.User {
	t.Helper()
	user, err := identity.NewUser("amine", "amine@gescom.dz", password, identity.RoleCashier)
	require.NoError(t, err)
	return user
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := testUser(t, "secret123A")
	expiresAt := time.Now().Add(24 * time.Hour)

	f.userRepo.On("FindByUsername", ctx, "amine").Return(user, nil)
	f.userRepo.On("Save", ctx, user).Return(nil)
	f.issuer.On("Issue", user).Return("signed.jwt.token", expiresAt, nil)

	result, err := f.service.Login(ctx, LoginRequest{Username: "amine", Password: "secret123A", IP: "10.0.0.5"})

	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", result.AccessToken)
	assert.Equal(t, expiresAt, result.ExpiresAt)
	assert.Equal(t, "amine", result.User.Username)
	assert.NotNil(t, user.LastLoginAt)
	f.userRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPasswordCountsAsFailure(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := testUser(t, "secret123A")

	f.userRepo.On("FindByUsername", ctx, "amine").Return(user, nil)
	f.userRepo.On("Save", ctx, user).Return(nil)

	_, err := f.service.Login(ctx, LoginRequest{Username: "amine", Password: "wrongpass1"})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	assert.Equal(t, 1, user.FailedAttempts)
	f.issuer.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestAuthService_Login_UnknownUserSameError(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.userRepo.On("FindByUsername", ctx, "ghost").Return(nil, nil)

	_, err := f.service.Login(ctx, LoginRequest{Username: "ghost", Password: "whatever1"})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
}

func TestAuthService_Login_LockedAccount(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := testUser(t, "secret123A")
	for i := 0; i < maxLoginAttempts; i++ {
		user.RecordLoginFailure(maxLoginAttempts, lockoutDuration)
	}
	require.Equal(t, identity.UserStatusLocked, user.Status)

	f.userRepo.On("FindByUsername", ctx, "amine").Return(user, nil)

	_, err := f.service.Login(ctx, LoginRequest{Username: "amine", Password: "secret123A"})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ACCOUNT_LOCKED", domainErr.Code)
	f.issuer.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestAuthService_CreateUser(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.userRepo.On("ExistsByUsername", ctx, "nadia").Return(false, nil)
	f.userRepo.On("ExistsByEmail", ctx, "nadia@gescom.dz").Return(false, nil)
	f.userRepo.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

	result, err := f.service.CreateUser(ctx, CreateUserRequest{
		Username:    "nadia",
		Email:       "nadia@gescom.dz",
		Password:    "motdepasse1",
		DisplayName: "Nadia K.",
		Role:        identity.RoleManager,
	})

	require.NoError(t, err)
	assert.Equal(t, "nadia", result.Username)
	assert.Equal(t, "Nadia K.", result.DisplayName)
	assert.Equal(t, identity.RoleManager, result.Role)
	f.userRepo.AssertExpectations(t)
}

func TestAuthService_CreateUser_UsernameTaken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.userRepo.On("ExistsByUsername", ctx, "nadia").Return(true, nil)

	_, err := f.service.CreateUser(ctx, CreateUserRequest{
		Username: "nadia",
		Email:    "nadia@gescom.dz",
		Password: "motdepasse1",
		Role:     identity.RoleViewer,
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "USERNAME_TAKEN", domainErr.Code)
	f.userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := testUser(t, "ancien1234")

	f.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	f.userRepo.On("Save", ctx, user).Return(nil)

	err := f.service.ChangePassword(ctx, user.ID, "ancien1234", "nouveau5678")

	require.NoError(t, err)
	assert.True(t, user.VerifyPassword("nouveau5678"))
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := testUser(t, "ancien1234")

	f.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

	err := f.service.ChangePassword(ctx, user.ID, "pasbon9999", "nouveau5678")

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	f.userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := testUser(t, "secret123A")

	f.userRepo.On("FindByEmail", ctx, "amine@gescom.dz").Return(user, nil)
	f.resetStore.On("Store", ctx, mock.AnythingOfType("string"), user.ID, resetTokenTTL).Return(nil)

	token, err := f.service.RequestPasswordReset(ctx, "amine@gescom.dz")

	require.NoError(t, err)
	assert.Len(t, token, 64)
	f.resetStore.AssertExpectations(t)
}

func TestAuthService_RequestPasswordReset_UnknownEmailSilent(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.userRepo.On("FindByEmail", ctx, "nobody@gescom.dz").Return(nil, nil)

	token, err := f.service.RequestPasswordReset(ctx, "nobody@gescom.dz")

	require.NoError(t, err)
	assert.Empty(t, token)
	f.resetStore.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ResetPassword(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := testUser(t, "ancien1234")

	f.resetStore.On("Consume", ctx, "sometoken").Return(user.ID, nil)
	f.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	f.userRepo.On("Save", ctx, user).Return(nil)

	err := f.service.ResetPassword(ctx, "sometoken", "nouveau5678")

	require.NoError(t, err)
	assert.True(t, user.VerifyPassword("nouveau5678"))
}

func TestAuthService_ResetPassword_InvalidToken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	tokenErr := shared.NewDomainError("INVALID_TOKEN", "Reset token is invalid or expired")

	f.resetStore.On("Consume", ctx, "expired").Return(uuid.Nil, tokenErr)

	err := f.service.ResetPassword(ctx, "expired", "nouveau5678")

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TOKEN", domainErr.Code)
	f.userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_SetUserRoleAndDeactivate(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := testUser(t, "secret123A")

	f.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	f.userRepo.On("Save", ctx, user).Return(nil)

	result, err := f.service.SetUserRole(ctx, user.ID, identity.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleManager, result.Role)

	result, err = f.service.DeactivateUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.UserStatusDeactivated, result.Status)
}

func TestAuthService_GetUser_NotFound(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	id := uuid.New()

	f.userRepo.On("FindByID", ctx, id).Return(nil, nil)

	_, err := f.service.GetUser(ctx, id)

	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
