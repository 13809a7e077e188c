package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveboard/driveboard/internal/auth"
	"github.com/driveboard/driveboard/internal/logger"
	"github.com/driveboard/driveboard/internal/session"
	"github.com/driveboard/driveboard/internal/users"
)

const adminSurfaceSecret = "users-handler-test-secret"

const adminUserID = "9f8e7d6c-5b4a-4392-8171-605f4e3d2c1b"

func newUsersServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(auth.JWTMiddleware(adminSurfaceSecret, "", nil))
	NewUsersHandler(logger.L, users.NewService(nil, nil)).Register(e)
	return e
}

func mintSurfaceToken(t *testing.T, userID, userType string) string {
	t.Helper()
	minter, err := session.NewMinter(adminSurfaceSecret, "")
	require.NoError(t, err)
	sess, err := minter.Mint(users.User{
		ID:          userID,
		FirebaseUID: "abc123",
		Email:       "a@x.com",
		UserType:    userType,
	}, time.Hour)
	require.NoError(t, err)
	return sess.AccessToken
}

func doUsersRequest(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListUsersRequiresToken(t *testing.T) {
	e := newUsersServer(t)
	rec := doUsersRequest(e, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUsersRejectsNonAdmin(t *testing.T) {
	e := newUsersServer(t)
	for _, tier := range []string{users.RoleClient, users.RoleManager} {
		token := mintSurfaceToken(t, adminUserID, tier)
		rec := doUsersRequest(e, http.MethodGet, "/users", token, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, "tier %s", tier)
	}
}

func TestUpdateRoleRejectsNonAdmin(t *testing.T) {
	e := newUsersServer(t)
	token := mintSurfaceToken(t, adminUserID, users.RoleClient)
	rec := doUsersRequest(e, http.MethodPut, "/users/"+adminUserID+"/role", token, `{"user_type":"MANAGER"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateRoleInvalidTier(t *testing.T) {
	e := newUsersServer(t)
	token := mintSurfaceToken(t, adminUserID, users.RoleAdmin)
	rec := doUsersRequest(e, http.MethodPut, "/users/some-target/role", token, `{"user_type":"SUPERUSER"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRoleSelfDemotionForbidden(t *testing.T) {
	e := newUsersServer(t)
	token := mintSurfaceToken(t, adminUserID, users.RoleAdmin)
	rec := doUsersRequest(e, http.MethodPut, "/users/"+adminUserID+"/role", token, `{"user_type":"CLIENT"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "demote")
}
