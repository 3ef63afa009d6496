package middleware

// identity.go holds the accessors for the identity JWTAuth stores in the
// Echo context.

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c echo.Context) string {
    if s, ok := c.Get(ctxUserID).(string); ok {
        return s
    }
    return ""
}

// Role returns the authenticated user's role, or "".
func Role(c echo.Context) string {
    if s, ok := c.Get(ctxRole).(string); ok {
        return s
    }
    return ""
}

// userKey identifies the caller in rate limit and cache keys.
func userKey(c echo.Context) string {
    if id := UserID(c); id != "" {
        return id
    }
    return "anon"
}
