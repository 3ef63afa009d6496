package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lodging-booking/internal/middleware"
    "github.com/iliyamo/lodging-booking/internal/model"
    "github.com/iliyamo/lodging-booking/internal/service"
)

// ReviewHandler serves listing reviews.
type ReviewHandler struct {
    Reviews *service.Reviews
}

func NewReviewHandler(r *service.Reviews) *ReviewHandler {
    return &ReviewHandler{Reviews: r}
}

type reviewReq struct {
    Rating  *int   `json:"rating"`
    Comment string `json:"comment"`
}

// Create handles POST /v1/listings/:id/reviews.
func (h *ReviewHandler) Create(c echo.Context) error {
    var req reviewReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "Invalid request body")
    }
    rv, err := h.Reviews.CreateReview(c.Request().Context(), c.Param("id"), middleware.UserID(c), req.Rating, req.Comment)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, rv)
}

// List handles GET /v1/listings/:id/reviews.
func (h *ReviewHandler) List(c echo.Context) error {
    items, err := h.Reviews.ListReviews(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    if items == nil {
        items = []model.Review{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Delete handles DELETE /v1/listings/:id/reviews/:reviewId.
func (h *ReviewHandler) Delete(c echo.Context) error {
    err := h.Reviews.DeleteReview(c.Request().Context(), c.Param("id"), c.Param("reviewId"), middleware.UserID(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
