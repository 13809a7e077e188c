// Package auth provides JWT middleware and request-context claim accessors.
package auth

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/driveboard/driveboard/internal/session"
	"github.com/driveboard/driveboard/internal/users"
)

const contextKey = "user"

// JWTMiddleware validates minted session tokens on every request the skipper
// does not exempt, storing the parsed token under the "user" context key.
func JWTMiddleware(secret, audience string, skipper middleware.Skipper) echo.MiddlewareFunc {
	if audience == "" {
		audience = session.DefaultAudience
	}
	return echojwt.WithConfig(echojwt.Config{
		Skipper:       skipper,
		ContextKey:    contextKey,
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return &session.Claims{}
		},
		ParseTokenFunc: func(c echo.Context, raw string) (any, error) {
			token, err := jwt.ParseWithClaims(raw, &session.Claims{}, func(token *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(audience), jwt.WithExpirationRequired())
			if err != nil {
				return nil, err
			}
			return token, nil
		},
	})
}

// ClaimsFromContext returns the session claims stored by the JWT middleware.
func ClaimsFromContext(c echo.Context) (*session.Claims, error) {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
	}
	claims, ok := token.Claims.(*session.Claims)
	if !ok || claims.Subject == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid session claims")
	}
	return claims, nil
}

// UserIDFromContext returns the authenticated user's internal id.
func UserIDFromContext(c echo.Context) (string, error) {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// RequireAdmin returns the claims when the caller's role tier is ADMIN,
// and a 403 error otherwise.
func RequireAdmin(c echo.Context) (*session.Claims, error) {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return nil, err
	}
	if claims.RoleTier() != users.RoleAdmin {
		return nil, echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}
	return claims, nil
}
