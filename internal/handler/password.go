package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lodging-booking/internal/logging"
    "github.com/iliyamo/lodging-booking/internal/notify"
    "github.com/iliyamo/lodging-booking/internal/repository"
    "github.com/iliyamo/lodging-booking/internal/utils"
)

type forgotReq struct {
    Email string `json:"email" validate:"required,email"`
}

type resetReq struct {
    Password        string `json:"password" validate:"required,min=6,max=72"`
    ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ForgotPassword issues a reset token and mails the reset link.  A mail
// failure is logged and still answers 200.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req forgotReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if err := c.Validate(&req); err != nil {
        return badRequest(c, validationMessage(err))
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "No account found with that email address."})
        }
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "query failed"})
    }

    raw, err := utils.NewResetToken()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "issue token failed"})
    }
    expires := h.Now().UTC().Add(h.Cfg.ResetTokenTTL)
    if err := h.Users.SetResetToken(ctx, u.ID, utils.HashToken(raw), expires); err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "save token failed"})
    }

    link := strings.TrimRight(h.Cfg.PublicBaseURL, "/") + "/reset-password/" + raw
    if h.Mailer != nil {
        if err := h.Mailer.SendResetEmail(ctx, u.Email, link); err != nil && !errors.Is(err, notify.ErrDisabled) {
            logging.WarnContext(ctx, "reset email not sent", "user_id", u.ID, "error", err)
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "An email has been sent to " + u.Email + " with further instructions."})
}

// ResetPassword sets a new password for the holder of a valid reset token
// and revokes every refresh token of that user.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    if req.Password != req.ConfirmPassword {
        return badRequest(c, "Passwords do not match.")
    }
    if err := c.Validate(&req); err != nil {
        return badRequest(c, validationMessage(err))
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    u, err := h.Users.GetByResetToken(ctx, utils.HashToken(c.Param("token")), h.Now().UTC())
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return badRequest(c, "Password reset token is invalid or has expired.")
        }
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "query failed"})
    }

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "hash password failed"})
    }
    if err := h.Users.ResetPassword(ctx, u.ID, hash); err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "save password failed"})
    }
    if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
        logging.WarnContext(ctx, "revoke sessions after reset failed", "user_id", u.ID, "error", err)
    }
    logging.InfoContext(ctx, "password reset", "user_id", u.ID)
    return c.JSON(http.StatusOK, echo.Map{"message": "Success! Your password has been changed."})
}
