// internal/interfaces/http/handlers/favorite.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
	"github.com/your-org/food-delivery-backend/internal/domain/favorite"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/middleware"
)

// FavoriteHandler handles the favorite restaurant endpoints
type FavoriteHandler struct {
	favoriteService *favorite.Service
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(favoriteService *favorite.Service) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// GetFavorites handles GET /favorites
func (h *FavoriteHandler) GetFavorites(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	restaurants, err := h.favoriteService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve favorites",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Favorites retrieved successfully",
		"data":    restaurants,
	})
}

// AddFavorite handles POST /favorites/:restaurant_id
func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	fav, err := h.favoriteService.AddFavorite(c.Request.Context(), userID, c.Param("restaurant_id"))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrRestaurantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		case errors.Is(err, favorite.ErrAlreadyFavorite):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favorite"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Added to favorites",
		"data":    fav,
	})
}

// RemoveFavorite handles DELETE /favorites/:restaurant_id
func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	err := h.favoriteService.RemoveFavorite(c.Request.Context(), userID, c.Param("restaurant_id"))
	if err != nil {
		if errors.Is(err, favorite.ErrFavoriteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Removed from favorites",
	})
}
