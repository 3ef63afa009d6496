package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodging-booking/internal/handler"
	"github.com/iliyamo/lodging-booking/internal/middleware"
	"github.com/iliyamo/lodging-booking/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.  Deletes
// that can remove listings or reviews run through invalidate.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string, invalidate echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/listings", a.ListListings)
	g.DELETE("/listings/:id", a.DeleteListing, invalidate)

	g.GET("/users", a.ListUsers)
	g.DELETE("/users/:id", a.DeleteUser, invalidate)

	g.GET("/reviews", a.ListReviews)
	g.DELETE("/reviews/:id", a.DeleteReview, invalidate)

	g.GET("/bookings", a.ListBookings)
	g.DELETE("/bookings/:id", a.DeleteBooking)
	g.PATCH("/bookings/:id/status", a.UpdateBookingStatus)
}
