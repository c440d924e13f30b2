package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/geocode"
)

// GeoHandler passes geocoding lookups through to the mapping provider.
type GeoHandler struct {
	geocoder *geocode.Client
	logger   *logrus.Logger
}

func NewGeoHandler(geocoder *geocode.Client, logger *logrus.Logger) *GeoHandler {
	return &GeoHandler{geocoder: geocoder, logger: logger}
}

func (h *GeoHandler) RegisterGeoRoutes(g *echo.Group) {
	g.GET("/geo/forward", h.Forward)
	g.GET("/geo/reverse", h.Reverse)
	g.GET("/geo/search", h.Search)
}

// Forward: GET /geo/forward?q=
func (h *GeoHandler) Forward(c echo.Context) error {
	places, err := h.geocoder.Forward(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, places)
}

// Reverse: GET /geo/reverse?lat=&lon=
func (h *GeoHandler) Reverse(c echo.Context) error {
	lat, lon, err := coordinates(c)
	if err != nil {
		return err
	}
	places, err := h.geocoder.Reverse(c.Request().Context(), lat, lon)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, places)
}

// Search: GET /geo/search?q=&lat=&lon=
func (h *GeoHandler) Search(c echo.Context) error {
	lat, lon, err := coordinates(c)
	if err != nil {
		return err
	}
	places, err := h.geocoder.Search(c.Request().Context(), c.QueryParam("q"), lat, lon)
	if err != nil {
		return serviceError(h.logger, c, err)
	}
	return ok(c, http.StatusOK, places)
}

func coordinates(c echo.Context) (float64, float64, error) {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid latitude")
	}
	lon, err := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid longitude")
	}
	return lat, lon, nil
}
