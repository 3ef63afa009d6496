package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lodging-booking/internal/logging"
    "github.com/iliyamo/lodging-booking/internal/model"
    "github.com/iliyamo/lodging-booking/internal/repository"
    "github.com/iliyamo/lodging-booking/internal/service"
)

// AdminHandler serves /v1/admin.  Every route is behind RequireRole(ADMIN)
// so no ownership checks happen here.
type AdminHandler struct {
    Listings *service.Listings
    Reviews  *service.Reviews
    Ledger   *service.Ledger
    Users    repository.UserRepository
}

func NewAdminHandler(l *service.Listings, r *service.Reviews, ledger *service.Ledger, users repository.UserRepository) *AdminHandler {
    return &AdminHandler{Listings: l, Reviews: r, Ledger: ledger, Users: users}
}

func (h *AdminHandler) ListListings(c echo.Context) error {
    items, err := h.Listings.List(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    if items == nil {
        items = []model.Listing{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) DeleteListing(c echo.Context) error {
    if err := h.Listings.AdminDelete(c.Request().Context(), c.Param("id")); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
    items, err := h.Users.List(c.Request().Context())
    if err != nil {
        return writeError(c, service.Upstream("list users failed", err))
    }
    if items == nil {
        items = []model.User{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteUser removes a user; their listings, bookings, reviews and
// refresh tokens go with them.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
    ctx := c.Request().Context()
    id := c.Param("id")
    if err := h.Users.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return writeError(c, service.NotFound("User not found"))
        }
        return writeError(c, service.Upstream("delete user failed", err))
    }
    logging.InfoContext(ctx, "user deleted", "user_id", id)
    return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListReviews(c echo.Context) error {
    items, err := h.Reviews.ListAllReviews(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    if items == nil {
        items = []model.Review{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) DeleteReview(c echo.Context) error {
    if err := h.Reviews.AdminDeleteReview(c.Request().Context(), c.Param("id")); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListBookings(c echo.Context) error {
    items, err := h.Ledger.ListAllBookings(c.Request().Context())
    return listBookings(c, items, err)
}

func (h *AdminHandler) DeleteBooking(c echo.Context) error {
    if err := h.Ledger.AdminDeleteBooking(c.Request().Context(), c.Param("id")); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// UpdateBookingStatus applies the normal transition table without the
// host/guest checks.
func (h *AdminHandler) UpdateBookingStatus(c echo.Context) error {
    var req statusReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    b, err := h.Ledger.AdminTransitionStatus(c.Request().Context(), c.Param("id"), req.Status)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}
