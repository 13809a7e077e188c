// Package handlers provides HTTP API handlers for the driveboard server.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/driveboard/driveboard/internal/bridge"
)

// AuthHandler serves /auth/firebase and exchanges identity tokens for sessions.
type AuthHandler struct {
	bridgeService *bridge.Service
	logger        *slog.Logger
}

// ExchangeRequest is the body for POST /auth/firebase.
type ExchangeRequest struct {
	Token string `json:"token"`
}

// NewAuthHandler creates an auth handler over the bridge orchestrator.
func NewAuthHandler(log *slog.Logger, bridgeService *bridge.Service) *AuthHandler {
	return &AuthHandler{
		bridgeService: bridgeService,
		logger:        log.With(slog.String("handler", "auth")),
	}
}

// Register mounts POST /auth/firebase on the Echo instance.
func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/auth/firebase", h.Exchange)
}

// Exchange godoc
// @Summary Exchange a Firebase ID token for a session
// @Description Verify the identity token, upsert the user, and mint a signed session
// @Tags auth
// @Param payload body ExchangeRequest true "Exchange request"
// @Success 200 {object} bridge.Envelope
// @Failure 400 {object} ExchangeErrorResponse
// @Router /auth/firebase [post].
func (h *AuthHandler) Exchange(c echo.Context) error {
	if h.bridgeService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "bridge not configured")
	}

	var req ExchangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ExchangeErrorResponse{Error: "invalid request body", Details: err.Error()})
	}
	if strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, ExchangeErrorResponse{Error: "Firebase ID token is missing from request body"})
	}

	env, err := h.bridgeService.Exchange(c.Request().Context(), req.Token)
	if err != nil {
		// Every failure kind maps to 400; the kind only shapes the message.
		h.logger.Warn("exchange failed", slog.Any("error", err))
		return c.JSON(http.StatusBadRequest, exchangeError(err))
	}
	return c.JSON(http.StatusOK, env)
}

func exchangeError(err error) ExchangeErrorResponse {
	resp := ExchangeErrorResponse{Details: err.Error()}
	switch {
	case errors.Is(err, bridge.ErrVerifyFailed):
		resp.Error = "invalid Firebase token"
	case errors.Is(err, bridge.ErrStoreFailed):
		resp.Error = "database error"
	case errors.Is(err, bridge.ErrMintFailed):
		resp.Error = "failed to create session token"
	default:
		resp.Error = "an unexpected error occurred"
	}
	return resp
}
