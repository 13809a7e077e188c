package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/driveboard/driveboard/internal/auth"
	"github.com/driveboard/driveboard/internal/drivers"
)

// DriversHandler serves the driver roster reads.
type DriversHandler struct {
	service *drivers.Service
	logger  *slog.Logger
}

// NewDriversHandler creates a drivers handler.
func NewDriversHandler(log *slog.Logger, service *drivers.Service) *DriversHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DriversHandler{
		service: service,
		logger:  log.With(slog.String("handler", "drivers")),
	}
}

// Register mounts the /drivers routes on the Echo instance.
func (h *DriversHandler) Register(e *echo.Echo) {
	group := e.Group("/drivers")
	group.GET("", h.ListDrivers)
	group.GET("/:id", h.GetDriver)
}

// ListDrivers godoc
// @Summary List drivers
// @Description List the driver roster for any authenticated session
// @Tags drivers
// @Success 200 {object} drivers.ListDriversResponse
// @Failure 401 {object} ErrorResponse
// @Router /drivers [get]
func (h *DriversHandler) ListDrivers(c echo.Context) error {
	if _, err := auth.ClaimsFromContext(c); err != nil {
		return err
	}
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, drivers.ListDriversResponse{Items: items})
}

// GetDriver godoc
// @Summary Get a driver
// @Description Get a single driver by id
// @Tags drivers
// @Param id path string true "Driver ID"
// @Success 200 {object} drivers.Driver
// @Failure 404 {object} ErrorResponse
// @Router /drivers/{id} [get]
func (h *DriversHandler) GetDriver(c echo.Context) error {
	if _, err := auth.ClaimsFromContext(c); err != nil {
		return err
	}
	driver, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, drivers.ErrDriverNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "driver not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, driver)
}
