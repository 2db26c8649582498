// internal/interfaces/http/handlers/review.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/food-delivery-backend/internal/domain/review"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/middleware"
)

// ReviewHandler handles order review endpoints
type ReviewHandler struct {
	reviewService *review.Service
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *review.Service) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// CreateReview handles POST /orders/:id/review
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req review.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	rev, err := h.reviewService.CreateReview(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrInvalidRating), errors.Is(err, review.ErrCommentTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, review.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, review.ErrOrderNotDelivered):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, review.ErrAlreadyReviewed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit review"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Thanks for rating your order: " + review.RatingLabel(rev.Rating),
		"data":    rev,
	})
}

// GetOrderReview handles GET /orders/:id/review
func (h *ReviewHandler) GetOrderReview(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	rev, err := h.reviewService.GetOrderReview(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, review.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve review"})
		return
	}
	if rev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "This order has not been reviewed yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Review retrieved successfully",
		"data":    rev,
	})
}

// GetRestaurantReviews handles GET /restaurants/:id/reviews
func (h *ReviewHandler) GetRestaurantReviews(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	reviews, err := h.reviewService.ListRestaurantReviews(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve reviews",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reviews retrieved successfully",
		"data":    reviews,
	})
}
