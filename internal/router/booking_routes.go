package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodging-booking/internal/handler"
	"github.com/iliyamo/lodging-booking/internal/middleware"
)

// RegisterBookings registers the booking lifecycle and payment routes.
// All of them require a valid access token; ownership is decided by the
// ledger because it depends on the target status.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/listings/:id/bookings", b.Create)
	g.GET("/bookings", b.ListMine)
	// static segment wins over :id in echo's router
	g.GET("/bookings/manage", b.ListManaged)
	g.GET("/bookings/:id", b.Get)
	g.PATCH("/bookings/:id/status", b.UpdateStatus)
	g.PATCH("/bookings/:id/cancel", b.Cancel)
	g.PUT("/bookings/:id/payment", b.UpdatePayment)
	g.DELETE("/bookings/:id", b.Delete)

	g.POST("/payments/orders", p.CreateOrder)
	g.POST("/payments/verify", p.Verify)
}
