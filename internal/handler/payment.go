package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/lodging-booking/internal/logging"
    "github.com/iliyamo/lodging-booking/internal/middleware"
    "github.com/iliyamo/lodging-booking/internal/payment"
    "github.com/iliyamo/lodging-booking/internal/service"
)

// PaymentHandler fronts the payment gateway.
type PaymentHandler struct {
    Gateway *payment.Client
    Ledger  *service.Ledger
}

func NewPaymentHandler(gw *payment.Client, l *service.Ledger) *PaymentHandler {
    return &PaymentHandler{Gateway: gw, Ledger: l}
}

// orderReq opens an order for a booking's total when BookingID is set;
// Amount is then ignored.
type orderReq struct {
    BookingID string          `json:"bookingId"`
    Amount    decimal.Decimal `json:"amount"`
    Currency  string          `json:"currency"`
    Receipt   string          `json:"receipt"`
}

// verifyReq uses the field names the gateway's checkout widget posts back.
type verifyReq struct {
    OrderID   string `json:"razorpay_order_id"`
    PaymentID string `json:"razorpay_payment_id"`
    Signature string `json:"razorpay_signature"`
    BookingID string `json:"bookingId"`
}

// CreateOrder handles POST /v1/payments/orders.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
    var req orderReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    if req.BookingID != "" {
        return h.createBookingOrder(c, req)
    }
    order, err := h.Gateway.CreateOrder(c.Request().Context(), payment.OrderRequest{
        Amount:   req.Amount,
        Currency: strings.TrimSpace(req.Currency),
        Receipt:  strings.TrimSpace(req.Receipt),
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, order)
}

// createBookingOrder charges the booking's stored total and remembers the
// order on the booking, so only this order can settle it.
func (h *PaymentHandler) createBookingOrder(c echo.Context, req orderReq) error {
    ctx := c.Request().Context()
    actor := middleware.UserID(c)

    b, err := h.Ledger.PayableBooking(ctx, req.BookingID, actor)
    if err != nil {
        return writeError(c, err)
    }
    order, err := h.Gateway.CreateOrder(ctx, payment.OrderRequest{
        Amount:   b.TotalPrice,
        Currency: strings.TrimSpace(req.Currency),
        Receipt:  b.ID,
    })
    if err != nil {
        return writeError(c, err)
    }
    if _, err := h.Ledger.AttachOrder(ctx, b.ID, actor, order.ID); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"order": order, "bookingId": b.ID})
}

// Verify handles POST /v1/payments/verify.  With a bookingId the outcome
// is recorded on the booking whether or not the signature matches, as long
// as the order is the one opened for that booking.
func (h *PaymentHandler) Verify(c echo.Context) error {
    var req verifyReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    ctx := c.Request().Context()
    ok := h.Gateway.VerifyPayment(req.OrderID, req.PaymentID, req.Signature)

    resp := echo.Map{"success": ok}
    if req.BookingID != "" {
        b, err := h.Ledger.RecordPayment(ctx, req.BookingID, middleware.UserID(c), req.OrderID, ok)
        if err != nil {
            return writeError(c, err)
        }
        resp["booking"] = b
    }
    if !ok {
        logging.WarnContext(ctx, "payment signature mismatch", "order_id", req.OrderID, "booking_id", req.BookingID)
        return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Invalid signature"})
    }
    return c.JSON(http.StatusOK, resp)
}
