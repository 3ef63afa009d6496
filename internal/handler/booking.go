package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lodging-booking/internal/middleware"
    "github.com/iliyamo/lodging-booking/internal/model"
    "github.com/iliyamo/lodging-booking/internal/service"
)

// BookingHandler exposes the booking ledger over HTTP.
type BookingHandler struct {
    Ledger *service.Ledger
}

func NewBookingHandler(l *service.Ledger) *BookingHandler {
    return &BookingHandler{Ledger: l}
}

// createBookingReq is decoded loosely; the ledger owns field validation so
// that error messages and their order stay in one place.
type createBookingReq struct {
    CheckIn         string `json:"checkIn"`
    CheckOut        string `json:"checkOut"`
    Guests          int    `json:"guests"`
    PhoneNumber     string `json:"phoneNumber"`
    SpecialRequests string `json:"specialRequests"`
}

type statusReq struct {
    Status string `json:"status"`
}

type paymentMethodReq struct {
    PaymentMethod string `json:"paymentMethod"`
}

// Create handles POST /v1/listings/:id/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
    var req createBookingReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    b, err := h.Ledger.CreateBooking(c.Request().Context(), service.CreateBookingInput{
        ListingID:       c.Param("id"),
        UserID:          middleware.UserID(c),
        CheckIn:         req.CheckIn,
        CheckOut:        req.CheckOut,
        Guests:          req.Guests,
        PhoneNumber:     req.PhoneNumber,
        SpecialRequests: req.SpecialRequests,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, b)
}

// ListMine handles GET /v1/bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
    items, err := h.Ledger.ListBookingsForUser(c.Request().Context(), middleware.UserID(c))
    return listBookings(c, items, err)
}

// ListManaged handles GET /v1/bookings/manage: bookings on the caller's
// listings.
func (h *BookingHandler) ListManaged(c echo.Context) error {
    items, err := h.Ledger.ListBookingsForListingOwner(c.Request().Context(), middleware.UserID(c))
    return listBookings(c, items, err)
}

func listBookings(c echo.Context, items []model.Booking, err error) error {
    if err != nil {
        return writeError(c, err)
    }
    if items == nil {
        items = []model.Booking{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
    b, err := h.Ledger.GetBooking(c.Request().Context(), c.Param("id"), middleware.UserID(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// UpdateStatus handles PATCH /v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
    var req statusReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    b, err := h.Ledger.TransitionStatus(c.Request().Context(), c.Param("id"), middleware.UserID(c), req.Status)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// Cancel handles PATCH /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
    b, err := h.Ledger.TransitionStatus(c.Request().Context(), c.Param("id"), middleware.UserID(c), string(model.BookingCancelled))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// UpdatePayment handles PUT /v1/bookings/:id/payment.
func (h *BookingHandler) UpdatePayment(c echo.Context) error {
    var req paymentMethodReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    b, err := h.Ledger.UpdatePaymentMethod(c.Request().Context(), c.Param("id"), middleware.UserID(c), req.PaymentMethod)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// Delete handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Delete(c echo.Context) error {
    if err := h.Ledger.DeleteBooking(c.Request().Context(), c.Param("id"), middleware.UserID(c)); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
