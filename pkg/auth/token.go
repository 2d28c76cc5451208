package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind is the value of the "type" claim
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

const (
	// DefaultAccessTTL is the lifetime of access tokens
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is the lifetime of refresh tokens
	DefaultRefreshTTL = 7 * 24 * time.Hour

	tokenIssuer = "boq"

	// InviteTokenPrefix identifies raw invitation tokens
	InviteTokenPrefix = "boqinv_"
	inviteTokenBytes  = 32
)

// Claims is the signed claim set: {sub, email, type, role?, exp}
type Claims struct {
	Email string    `json:"email"`
	Type  TokenKind `json:"type"`
	Role  Role      `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// CodecConfig configures the token codec
type CodecConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenCodec signs and verifies HS256 tokens. Access and refresh tokens
// are signed with independent secrets and each verifies only against its own.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenCodec validates the configuration and builds a codec
func NewTokenCodec(cfg CodecConfig) (*TokenCodec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	return &TokenCodec{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// AccessTTL returns the configured access token lifetime
func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// Issue signs a token of the given kind. Role is only embedded when non-empty.
func (c *TokenCodec) Issue(kind TokenKind, subject, email string, role Role) (string, error) {
	secret, ttl, err := c.secretFor(kind)
	if err != nil {
		return "", err
	}

	now := c.now().UTC()
	claims := Claims{
		Email: email,
		Type:  kind,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAccess verifies an access token against the access secret,
// including expiry.
func (c *TokenCodec) ParseAccess(token string) (*Claims, error) {
	return c.parse(token, c.accessSecret, true)
}

// ParseRefresh verifies a refresh token against the refresh secret,
// including expiry.
func (c *TokenCodec) ParseRefresh(token string) (*Claims, error) {
	return c.parse(token, c.refreshSecret, true)
}

// DecodeAccess verifies the signature of an access token but does not
// enforce its time claims.
func (c *TokenCodec) DecodeAccess(token string) (*Claims, error) {
	return c.parse(token, c.accessSecret, false)
}

// Expired reports whether the claims' expiry has passed
func (c *TokenCodec) Expired(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !c.now().Before(claims.ExpiresAt.Time)
}

func (c *TokenCodec) parse(token string, secret []byte, validateTime bool) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(c.now),
	}
	if validateTime {
		opts = append(opts, jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, collapseToken(err)
	}

	// WithoutClaimsValidation also skips WithIssuer, so iss is checked here
	// for both paths.
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.Issuer != tokenIssuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *TokenCodec) secretFor(kind TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case TokenAccess:
		return c.accessSecret, c.accessTTL, nil
	case TokenRefresh:
		return c.refreshSecret, c.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}

// NewInviteToken generates a raw one-time invitation token.
// Format: boqinv_<base64url(32 random bytes)>. Only its slow hash is stored.
func NewInviteToken() (string, error) {
	b := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return InviteTokenPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}
