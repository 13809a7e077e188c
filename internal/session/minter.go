// Package session mints and parses the signed session tokens accepted by the data API.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/driveboard/driveboard/internal/users"
)

// DefaultAudience is the audience claim expected by downstream consumers.
const DefaultAudience = "authenticated"

// ErrNoSecret is returned when the minter is constructed without a signing secret.
var ErrNoSecret = errors.New("session signing secret is not configured")

// UserMetadata carries the per-user claims consulted by authorization checks.
type UserMetadata struct {
	UserType    string `json:"user_type"`
	FullName    string `json:"full_name"`
	FirebaseUID string `json:"firebase_uid"`
}

// AppMetadata records which identity provider produced the linked account.
type AppMetadata struct {
	Provider  string   `json:"provider"`
	Providers []string `json:"providers"`
}

// Claims is the session token payload. Subject is always the internal user
// row id; the Firebase uid only appears inside UserMetadata.
type Claims struct {
	Email        string       `json:"email"`
	Role         string       `json:"role"`
	UserMetadata UserMetadata `json:"user_metadata"`
	AppMetadata  AppMetadata  `json:"app_metadata"`
	jwt.RegisteredClaims
}

// RoleTier returns the stored role tier carried by the claims.
func (c *Claims) RoleTier() string {
	return c.UserMetadata.UserType
}

// Session is a freshly minted token with its validity window.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   int64     `json:"expires_at"`
	IssuedAt    time.Time `json:"-"`
}

// Minter signs session tokens with the shared HS256 secret.
type Minter struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// NewMinter creates a minter for the given secret and audience. A missing
// secret is a configuration error, not a per-request one.
func NewMinter(secret, audience string) (*Minter, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	if audience == "" {
		audience = DefaultAudience
	}
	return &Minter{
		secret:   []byte(secret),
		audience: audience,
		now:      time.Now,
	}, nil
}

// WithClock replaces the minter's clock. Used by tests.
func (m *Minter) WithClock(now func() time.Time) *Minter {
	m.now = now
	return m
}

// Mint builds and signs a session token over the stored user row. The
// subject claim is the internal row id, never the Firebase uid.
func (m *Minter) Mint(user users.User, ttl time.Duration) (Session, error) {
	if strings.TrimSpace(user.ID) == "" {
		return Session{}, errors.New("mint: user id is required")
	}
	if ttl <= 0 {
		return Session{}, fmt.Errorf("mint: ttl must be positive, got %s", ttl)
	}

	issuedAt := m.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims := Claims{
		Email: user.Email,
		Role:  m.audience,
		UserMetadata: UserMetadata{
			UserType:    user.UserType,
			FullName:    user.FullName,
			FirebaseUID: user.FirebaseUID,
		},
		AppMetadata: AppMetadata{
			Provider:  "firebase",
			Providers: []string{"firebase"},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}

	return Session{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(ttl / time.Second),
		ExpiresAt:   expiresAt.Unix(),
		IssuedAt:    issuedAt,
	}, nil
}

// Parse validates a raw session token (signature, expiry, audience) and
// returns its claims.
func (m *Minter) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(m.audience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}
