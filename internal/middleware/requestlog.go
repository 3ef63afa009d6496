package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lodging-booking/internal/logging"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or assigns a new one, echoes
// it on the response and stores it in the request context for logging.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            id := req.Header.Get(HeaderRequestID)
            if id == "" || len(id) > 128 {
                id = uuid.NewString()
            }
            c.Response().Header().Set(HeaderRequestID, id)
            c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
            return next(c)
        }
    }
}

// RequestLogger writes one structured line per request.
func RequestLogger() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            status := c.Response().Status
            args := []any{
                "method", c.Request().Method,
                "route", c.Path(),
                "path", c.Request().URL.Path,
                "status", status,
                "latency_ms", time.Since(start).Milliseconds(),
            }
            log := logging.FromContext(c.Request().Context())
            switch {
            case status >= 500:
                log.Error("request", args...)
            case status >= 400:
                log.Warn("request", args...)
            default:
                log.Info("request", args...)
            }
            return nil
        }
    }
}
