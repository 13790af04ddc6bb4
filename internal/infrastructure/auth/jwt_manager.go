package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/kidpech/asso_api/internal/config"
	"github.com/kidpech/asso_api/internal/domain/user"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

var (
	errWrongTokenType  = errors.New("wrong token type")
	errSecretRotated   = errors.New("token secret version rotated")
	errRefreshRevoked  = errors.New("refresh token revoked")
	errRefreshMismatch = errors.New("refresh token belongs to another account")
)

// Claims is the payload of both token kinds.
type Claims struct {
	UserID    uuid.UUID `json:"uid"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	SecretVer string    `json:"sv"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// Manager signs HS256 token pairs and tracks live refresh tokens so that each
// one can be exchanged exactly once.
type Manager struct {
	cfg    config.AuthConfig
	store  refreshStore
	parser *jwt.Parser
	now    func() time.Time
}

// NewManager builds a Manager. Without redis, refresh tokens live in memory
// and do not survive a restart.
func NewManager(cfg config.AuthConfig, redisClient *redis.Client) *Manager {
	var store refreshStore = newMemoryStore()
	if redisClient != nil {
		store = &redisStore{client: redisClient}
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.TokenIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.TokenIssuer))
	}
	return &Manager{cfg: cfg, store: store, parser: jwt.NewParser(opts...), now: time.Now}
}

// IssueTokens signs a fresh access/refresh pair for u.
func (m *Manager) IssueTokens(ctx context.Context, u *user.User) (user.AuthTokens, error) {
	access, err := m.sign(u, tokenAccess, m.cfg.AccessTokenTTL, m.cfg.AccessSecret)
	if err != nil {
		return user.AuthTokens{}, err
	}
	refresh, err := m.sign(u, tokenRefresh, m.cfg.RefreshTokenTTL, m.cfg.RefreshSecret)
	if err != nil {
		return user.AuthTokens{}, err
	}
	if err := m.store.put(ctx, refresh.claims.ID, refresh.token, m.cfg.RefreshTokenTTL); err != nil {
		return user.AuthTokens{}, fmt.Errorf("store refresh token: %w", err)
	}
	return user.AuthTokens{
		AccessToken:  access.token,
		RefreshToken: refresh.token,
		ExpiresIn:    int64(m.cfg.AccessTokenTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// RefreshTokens consumes token and issues a new pair for u.
func (m *Manager) RefreshTokens(ctx context.Context, u *user.User, token string) (user.AuthTokens, error) {
	claims, err := m.verify(token, m.cfg.RefreshSecret, tokenRefresh)
	if err != nil {
		return user.AuthTokens{}, err
	}
	if claims.UserID != u.ID {
		return user.AuthTokens{}, errRefreshMismatch
	}
	ok, err := m.store.take(ctx, claims.ID, token)
	if err != nil {
		return user.AuthTokens{}, fmt.Errorf("load refresh token: %w", err)
	}
	if !ok {
		return user.AuthTokens{}, errRefreshRevoked
	}
	return m.IssueTokens(ctx, u)
}

// ParseAccessToken validates an access token.
func (m *Manager) ParseAccessToken(token string) (*Claims, error) {
	return m.verify(token, m.cfg.AccessSecret, tokenAccess)
}

// ExtractUserID reads the account id out of a refresh token without consuming it.
func (m *Manager) ExtractUserID(refreshToken string) (uuid.UUID, error) {
	claims, err := m.verify(refreshToken, m.cfg.RefreshSecret, tokenRefresh)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

type signed struct {
	token  string
	claims *Claims
}

func (m *Manager) sign(u *user.User, kind string, ttl time.Duration, secret string) (signed, error) {
	now := m.now().UTC()
	claims := &Claims{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		SecretVer: m.cfg.SecretVersion,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.TokenIssuer,
			Subject:   u.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return signed{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed{token: token, claims: claims}, nil
}

func (m *Manager) verify(token, secret, kind string) (*Claims, error) {
	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}); err != nil {
		return nil, err
	}
	if claims.TokenType != kind {
		return nil, errWrongTokenType
	}
	if claims.SecretVer != m.cfg.SecretVersion {
		return nil, errSecretRotated
	}
	return claims, nil
}
