package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is the liveness probe.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Pinger is anything whose reachability gates readiness.
type Pinger interface {
    Ping(ctx context.Context) error
}

// Ready answers 200 when the store responds within two seconds and 503
// otherwise.
func Ready(store Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := store.Ping(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
    }
}
