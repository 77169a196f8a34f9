package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"kimora-storefront/internal/apperr"
)

// httpError maps the error taxonomy onto HTTP statuses. Messages for the
// token flow stay generic; everything else may name the problem.
func httpError(err error) error {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return err
	}

	switch e.Kind {
	case apperr.KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, e.Msg)
	case apperr.KindAuthentication:
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired link")
	case apperr.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, e.Msg)
	case apperr.KindConfiguration:
		// Operator-facing; details stay in the logs.
		return echo.NewHTTPError(http.StatusInternalServerError, "server misconfigured")
	case apperr.KindUpstream:
		return echo.NewHTTPError(http.StatusBadGateway, "payment provider unavailable")
	}
	return err
}
