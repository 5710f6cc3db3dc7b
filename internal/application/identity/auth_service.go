package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gescom/backend/internal/domain/identity"
	"github.com/gescom/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Lockout policy applied on repeated authentication failures
const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

// resetTokenTTL bounds how long a password reset token stays usable
const resetTokenTTL = 30 * time.Minute

// TokenIssuer mints signed access tokens for authenticated users
type TokenIssuer interface {
	Issue(user *identity.User) (token string, expiresAt time.Time, err error)
}

// ResetTokenStore holds single-use password reset tokens with expiry.
// Consume atomically invalidates the token it resolves.
type ResetTokenStore interface {
	Store(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

// LoginRequest is the input for authentication
type LoginRequest struct {
	Username string
	Password string
	IP       string
}

// CreateUserRequest is the input for user creation
type CreateUserRequest struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Role        identity.Role
}

// UserResult is the service-level view of a user
type UserResult struct {
	ID          uuid.UUID           `json:"id"`
	Username    string              `json:"username"`
	Email       string              `json:"email"`
	DisplayName string              `json:"display_name,omitempty"`
	Role        identity.Role       `json:"role"`
	Status      identity.UserStatus `json:"status"`
	LastLoginAt *time.Time          `json:"last_login_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// LoginResult carries the issued token and the authenticated user
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *UserResult `json:"user"`
}

func toUserResult(u *identity.User) *UserResult {
	return &UserResult{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// AuthService handles authentication, user management and the password
// reset flow.
type AuthService struct {
	userRepo    identity.UserRepository
	tokenIssuer TokenIssuer
	resetStore  ResetTokenStore
	events      shared.EventPublisher
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo identity.UserRepository, tokenIssuer TokenIssuer, resetStore ResetTokenStore) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokenIssuer: tokenIssuer,
		resetStore:  resetStore,
	}
}

// SetEventPublisher wires the bus the service publishes domain events to.
// Without one, events are dropped.
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// Login authenticates a user and issues an access token.
// Failed attempts count toward a temporary lockout; the same generic error
// is returned for unknown users and wrong passwords.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	invalidCredentials := shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, invalidCredentials
	}
	if !user.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked or deactivated")
	}

	if !user.VerifyPassword(req.Password) {
		user.RecordLoginFailure(maxLoginAttempts, lockoutDuration)
		if err := s.userRepo.Save(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to save user: %w", err)
		}
		return nil, invalidCredentials
	}

	user.RecordLoginSuccess(req.IP)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	token, expiresAt, err := s.tokenIssuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        toUserResult(user),
	}, nil
}

// CreateUser creates a new user account
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResult, error) {
	taken, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, shared.NewDomainError("USERNAME_TAKEN", "Username is already in use")
	}
	taken, err = s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, shared.NewDomainError("EMAIL_TAKEN", "Email is already in use")
	}

	user, err := identity.NewUser(req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return nil, err
	}
	if req.DisplayName != "" {
		if err := user.SetDisplayName(req.DisplayName); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	shared.PublishEvents(ctx, s.events, user)

	return toUserResult(user), nil
}

// ChangePassword changes a user's password after verifying the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(oldPassword, newPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	shared.PublishEvents(ctx, s.events, user)
	return nil
}

// RequestPasswordReset issues a single-use reset token for the account
// behind the given email. To avoid revealing which emails exist, an
// unknown email yields no error and no token.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.Status == identity.UserStatusDeactivated {
		return "", nil
	}

	token, err := generateResetToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.resetStore.Store(ctx, token, user.ID, resetTokenTTL); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets the new password
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.resetStore.Consume(ctx, token)
	if err != nil {
		return err
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	shared.PublishEvents(ctx, s.events, user)
	return nil
}

// GetUser returns one user by ID
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*UserResult, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResult(user), nil
}

// ListUsers returns a paginated user page
func (s *AuthService) ListUsers(ctx context.Context, filter shared.Filter) (*shared.Paginated[*UserResult], error) {
	page, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	results := make([]*UserResult, len(page.Items))
	for i, u := range page.Items {
		results[i] = toUserResult(u)
	}
	out := shared.NewPaginated(results, page.Total, page.Page, page.PageSize)
	return &out, nil
}

// SetUserRole changes a user's role
func (s *AuthService) SetUserRole(ctx context.Context, id uuid.UUID, role identity.Role) (*UserResult, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.SetRole(role); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return toUserResult(user), nil
}

// DeactivateUser disables an account
func (s *AuthService) DeactivateUser(ctx context.Context, id uuid.UUID) (*UserResult, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return toUserResult(user), nil
}

func (s *AuthService) findUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
