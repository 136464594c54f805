package auth

import (
	"errors"
	"strings"
	"time"

	"campaign-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the only verification failure callers ever see.
// Malformed, expired and badly signed tokens are not distinguished.
var ErrInvalidToken = errors.New("invalid or expired token")

type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("JWT_ACCESS_SECRET is required")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("JWT_REFRESH_SECRET is required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token ttls must be positive")
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}, nil
}

// RefreshTTL is the lifetime persisted alongside refresh token rows.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

/* ===================== ISSUE TOKENS ===================== */

// IssueAccessToken mints an access token for p. An empty tenantID yields a
// token whose tenantId claim is null.
func (m *Manager) IssueAccessToken(now time.Time, p Principal, tenantID string) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: m.registered(now, p.UserID, m.accessTTL),
		UserID:           p.UserID,
		Email:            p.Email,
		IsSuperAdmin:     p.IsSuperAdmin,
		TokenType:        TokenTypeAccess,
	}
	if tenantID != "" {
		claims.TenantID = &tenantID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
}

// IssueRefreshToken mints a refresh token. Every token gets a fresh jti, so two
// tokens issued in the same second for the same user still differ.
func (m *Manager) IssueRefreshToken(now time.Time, userID string) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: m.registered(now, userID, m.refreshTTL),
		UserID:           userID,
		TokenType:        TokenTypeRefresh,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
}

/* ===================== VERIFY TOKENS ===================== */

func (m *Manager) VerifyAccessToken(tokenString string, now time.Time) (*AccessClaims, error) {
	var claims AccessClaims
	if err := m.parse(tokenString, &claims, m.accessSecret, now); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (m *Manager) VerifyRefreshToken(tokenString string, now time.Time) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := m.parse(tokenString, &claims, m.refreshSecret, now); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeRefresh || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

/* ===================== INTERNAL ===================== */

// clockSkew is tolerated on iat and exp between instances.
const clockSkew = 30 * time.Second

func (m *Manager) parse(tokenString string, claims jwt.Claims, secret []byte, now time.Time) error {
	if tokenString == "" {
		return ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	return err
}

func (m *Manager) registered(now time.Time, subject string, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   subject,
		Audience:  audienceOrNil(m.audience),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}

const bearerPrefix = "Bearer "

// ExtractBearerToken returns the token from an Authorization header value.
// Only the "Bearer <token>" scheme is accepted.
func ExtractBearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if tok == "" {
		return "", false
	}
	return tok, true
}
