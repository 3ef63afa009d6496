package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lodging-booking/internal/logging"
    "github.com/iliyamo/lodging-booking/internal/service"
)

// statusByKind maps service error kinds onto HTTP status codes.
var statusByKind = map[service.Kind]int{
    service.KindInvalidInput:      http.StatusBadRequest,
    service.KindNotFound:          http.StatusNotFound,
    service.KindConflict:          http.StatusConflict,
    service.KindForbidden:         http.StatusForbidden,
    service.KindInvalidTransition: http.StatusUnprocessableEntity,
    service.KindUpstream:          http.StatusBadGateway,
}

// writeError renders err as {"error": kind, "message": text}.  Errors that
// are not service errors become 500s and are logged.
func writeError(c echo.Context, err error) error {
    var se *service.Error
    if !errors.As(err, &se) {
        logging.ErrorContext(c.Request().Context(), "unhandled error", "error", err, "route", c.Path())
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "Something went wrong"})
    }
    status, ok := statusByKind[se.Kind]
    if !ok {
        status = http.StatusInternalServerError
    }
    if se.Kind == service.KindUpstream {
        logging.ErrorContext(c.Request().Context(), "upstream failure", "error", se.Err, "message", se.Message)
    }
    return c.JSON(status, echo.Map{"error": string(se.Kind), "message": se.Message})
}

// badRequest is the response for malformed bodies and failed validation.
func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": string(service.KindInvalidInput), "message": msg})
}
