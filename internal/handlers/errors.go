package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/geocode"
	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/services"
)

var statusByClass = []struct {
	err    error
	status int
}{
	{services.ErrUnauthorized, http.StatusUnauthorized},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrLimitExceeded, http.StatusUnprocessableEntity},
	{services.ErrConflict, http.StatusConflict},

	{geocode.ErrEmptyQuery, http.StatusBadRequest},
	{models.ErrLatitude, http.StatusBadRequest},
	{models.ErrLongitude, http.StatusBadRequest},
	{models.ErrCoordinates, http.StatusBadRequest},
	{geocode.ErrNotConfigured, http.StatusServiceUnavailable},
	{geocode.ErrUpstream, http.StatusBadGateway},
}

// serviceError turns a service error into an HTTP error. Caller mistakes keep
// their message; anything unexpected is logged and reported as a bare 500.
func serviceError(logger *logrus.Logger, c echo.Context, err error) error {
	for _, m := range statusByClass {
		if errors.Is(err, m.err) {
			return echo.NewHTTPError(m.status, err.Error())
		}
	}
	logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Error("request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}
