// internal/interfaces/http/handlers/restaurant.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
)

// RestaurantHandler handles restaurant browsing endpoints
type RestaurantHandler struct {
	catalogService *catalog.Service
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(catalogService *catalog.Service) *RestaurantHandler {
	return &RestaurantHandler{catalogService: catalogService}
}

// ListRestaurants handles GET /restaurants
func (h *RestaurantHandler) ListRestaurants(c *gin.Context) {
	var filter catalog.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	restaurants, err := h.catalogService.ListRestaurants(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve restaurants",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Restaurants retrieved successfully",
		"data":    restaurants,
	})
}

// GetRestaurant handles GET /restaurants/:id
func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	restaurant, err := h.catalogService.GetRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrRestaurantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Restaurant not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve restaurant",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Restaurant retrieved successfully",
		"data":    restaurant,
	})
}
