package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lodging-booking/internal/config"
    "github.com/iliyamo/lodging-booking/internal/logging"
    "github.com/iliyamo/lodging-booking/internal/middleware"
    "github.com/iliyamo/lodging-booking/internal/model"
    "github.com/iliyamo/lodging-booking/internal/notify"
    "github.com/iliyamo/lodging-booking/internal/repository"
    "github.com/iliyamo/lodging-booking/internal/utils"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  repository.UserRepository
    Tokens repository.TokenRepository
    Mailer notify.Sender
    Now    func() time.Time
}

func NewAuthHandler(cfg config.Config, u repository.UserRepository, t repository.TokenRepository, m notify.Sender) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Mailer: m, Now: time.Now}
}

// ----- DTOs -----

type registerReq struct {
    Username string `json:"username" validate:"required,max=100"`
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=6,max=72"`
}
type loginReq struct {
    Email    string `json:"email" validate:"required"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    User    *model.User `json:"user"`
    Access  tokenPart   `json:"access"`
    Refresh tokenPart   `json:"refresh"`
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if err := c.Validate(&req); err != nil {
        return badRequest(c, validationMessage(err))
    }

    role := model.RoleUser
    if h.Cfg.IsAdminEmail(req.Email) {
        role = model.RoleAdmin
    }
    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "hash password failed"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    now := h.Now().UTC()
    u := &model.User{
        ID:           uuid.NewString(),
        Username:     req.Username,
        Email:        req.Email,
        PasswordHash: hash,
        Role:         role,
        CreatedAt:    now,
        UpdatedAt:    now,
    }
    if err := h.Users.Create(ctx, u); err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "A user with the given email is already registered"})
        }
        logging.ErrorContext(ctx, "create user failed", "error", err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "create user failed"})
    }
    logging.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
    return h.issue(c, ctx, http.StatusCreated, u)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if err := c.Validate(&req); err != nil {
        return badRequest(c, "email/password required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid credentials"})
        }
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid credentials"})
    }
    return h.issue(c, ctx, http.StatusOK, u)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return badRequest(c, "refreshToken required")
    }
    hash := utils.HashToken(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid refresh"})
    }
    return h.issue(c, ctx, http.StatusOK, u)
}

// Logout revokes one refresh token when given in the body, otherwise all
// refresh tokens of the bearer.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if refreshToken != "" {
        hash := utils.HashToken(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }

    auth := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(auth, "Bearer ") {
        claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
        if err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid token"})
        }
        if err := h.Tokens.RevokeAllForUser(ctx, claims.Subject); err != nil {
            return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    return badRequest(c, "provide Authorization header or refreshToken")
}

// Me returns the current user.
func (h *AuthHandler) Me(c echo.Context) error {
    u, err := h.Users.GetByID(c.Request().Context(), middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "User not found"})
    }
    return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) issue(c echo.Context, ctx context.Context, status int, u *model.User) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_failure", "message": "save refresh failed"})
    }
    return c.JSON(status, authResp{
        User:    u,
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}
