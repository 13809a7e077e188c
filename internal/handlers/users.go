package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/driveboard/driveboard/internal/auth"
	"github.com/driveboard/driveboard/internal/users"
)

// UsersHandler serves the administrative user surface.
type UsersHandler struct {
	service *users.Service
	logger  *slog.Logger
}

// NewUsersHandler creates a users handler.
func NewUsersHandler(log *slog.Logger, service *users.Service) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{
		service: service,
		logger:  log.With(slog.String("handler", "users")),
	}
}

// Register mounts the /users routes on the Echo instance.
func (h *UsersHandler) Register(e *echo.Echo) {
	group := e.Group("/users")
	group.GET("/me", h.GetMe)
	group.GET("", h.ListUsers)
	group.PUT("/:id/role", h.UpdateRole)
}

// GetMe godoc
// @Summary Get current user
// @Description Get the stored row for the authenticated session
// @Tags users
// @Success 200 {object} users.User
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/me [get]
func (h *UsersHandler) GetMe(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Description List all users (admin only)
// @Tags users
// @Success 200 {object} users.ListUsersResponse
// @Failure 403 {object} ErrorResponse
// @Router /users [get]
func (h *UsersHandler) ListUsers(c echo.Context) error {
	if _, err := auth.RequireAdmin(c); err != nil {
		return err
	}
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, users.ListUsersResponse{Items: items})
}

// UpdateRole godoc
// @Summary Update a user's role tier
// @Description Change the target user's role (admin only, self-demotion rejected)
// @Tags users
// @Param id path string true "User ID"
// @Param payload body users.UpdateRoleRequest true "Role payload"
// @Success 200 {object} users.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/role [put]
func (h *UsersHandler) UpdateRole(c echo.Context) error {
	claims, err := auth.RequireAdmin(c)
	if err != nil {
		return err
	}
	var req users.UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.UpdateRole(c.Request().Context(), c.Param("id"), req.UserType, claims.Subject, claims.RoleTier())
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidRole):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, users.ErrSelfDemotion):
			return echo.NewHTTPError(http.StatusForbidden, "cannot demote your own role")
		case errors.Is(err, users.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, user)
}
