package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for deterministic HTTP mapping.
var (
	ErrDuplicateUsername    = errors.New("username already registered")
	ErrUnknownPhone         = errors.New("phone does not belong to a member")
	ErrInvalidCreds         = errors.New("invalid credentials")
	ErrForbidden            = errors.New("forbidden")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidToken         = errors.New("invalid token")
	ErrRegistrationDisabled = errors.New("registration disabled")
)

// TokenManager abstracts JWT/refresh issuance.
type TokenManager interface {
	IssueTokens(ctx context.Context, user *User) (AuthTokens, error)
	RefreshTokens(ctx context.Context, user *User, refreshToken string) (AuthTokens, error)
	ExtractUserID(refreshToken string) (uuid.UUID, error)
}

// MemberDirectory answers whether a phone number belongs to a member.
type MemberDirectory interface {
	PhoneRegistered(ctx context.Context, phone string) (bool, error)
}

// LoginRecorder keeps the audit trail of login attempts.
type LoginRecorder interface {
	Record(ctx context.Context, username string, success bool) error
}

// Options tunes a Service. Zero values are usable.
type Options struct {
	AllowSignup bool
	BcryptCost  int
	Members     MemberDirectory
	Logins      LoginRecorder
	// OnLogin is invoked after every login attempt, typically to bump a metric.
	OnLogin func(success bool)
}

// Service encapsulates user orchestration.
type Service struct {
	repo      Repository
	tokens    TokenManager
	validator *validator.Validate
	logger    *zap.Logger
	opts      Options
	now       func() time.Time
}

// NewService wires a Service.
func NewService(repo Repository, tokens TokenManager, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:      repo,
		tokens:    tokens,
		validator: validator.New(),
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// Register creates a user bound to a member phone and immediately issues tokens.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if !s.opts.AllowSignup {
		return nil, ErrRegistrationDisabled
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if s.opts.Members != nil {
		known, err := s.opts.Members.PhoneRegistered(ctx, req.Phone)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, ErrUnknownPhone
		}
	}

	user, err := s.create(ctx, req.Username, req.Password, req.Phone, RoleUser)
	if err != nil {
		return nil, err
	}
	tokens, err := s.tokens.IssueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, Tokens: tokens}, nil
}

// Login authenticates by username/password. Every attempt is recorded.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.authenticate(ctx, req)
	s.recordLogin(ctx, req.Username, err == nil)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Warn("update last login failed", zap.String("username", user.Username), zap.Error(err))
	}

	tokens, err := s.tokens.IssueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, Tokens: tokens}, nil
}

// Refresh uses refresh token to rotate credentials.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := s.tokens.ExtractUserID(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrInvalidToken
	}
	tokens, err := s.tokens.RefreshTokens(ctx, user, refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &AuthResponse{User: user, Tokens: tokens}, nil
}

// GetMe returns the authed account.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List returns paginated users for admin dashboards.
func (s *Service) List(ctx context.Context, filter UserFilter) ([]User, int, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// CreateUser lets an admin open an account without the member phone check.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = RoleUser
	}
	return s.create(ctx, req.Username, req.Password, req.Phone, role)
}

// UpdateRole changes the role of the account named in req.
func (s *Service) UpdateRole(ctx context.Context, req UpdateRoleRequest) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	user.Role = req.Role
	user.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *Service) Delete(ctx context.Context, actorID uuid.UUID, username string) error {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if user.ID == actorID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, user.Username)
}

// EnsureAdmin creates the bootstrap admin unless the username already exists.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}
	if _, err := s.CreateUser(ctx, CreateUserRequest{Username: username, Password: password, Role: RoleAdmin}); err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("username", username))
	return true, nil
}

func (s *Service) create(ctx context.Context, username, password, phone, role string) (*User, error) {
	if existing, err := s.repo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if phone != "" {
		user.Phone = &phone
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) authenticate(ctx context.Context, req LoginRequest) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil || user == nil {
		return nil, ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCreds
	}
	return user, nil
}

func (s *Service) recordLogin(ctx context.Context, username string, success bool) {
	if s.opts.OnLogin != nil {
		s.opts.OnLogin(success)
	}
	if s.opts.Logins == nil {
		return
	}
	if err := s.opts.Logins.Record(ctx, username, success); err != nil {
		s.logger.Warn("record login failed", zap.String("username", username), zap.Error(err))
	}
}
