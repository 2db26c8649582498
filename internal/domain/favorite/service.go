// internal/domain/favorite/service.go
package favorite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
)

// Service handles a user's favorite restaurants
type Service struct {
	db *gorm.DB
}

// NewService creates a new favorite service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListFavorites returns the user's favorite restaurants, most recently saved first
func (s *Service) ListFavorites(ctx context.Context, userID uint) ([]catalog.Restaurant, error) {
	var restaurants []catalog.Restaurant
	err := s.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.restaurant_id = restaurants.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&restaurants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve favorites: %w", err)
	}
	return restaurants, nil
}

// AddFavorite saves a restaurant to the user's favorites
func (s *Service) AddFavorite(ctx context.Context, userID uint, restaurantID string) (*Favorite, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&catalog.Restaurant{}).Where("id = ?", restaurantID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check restaurant: %w", err)
	}
	if count == 0 {
		return nil, catalog.ErrRestaurantNotFound
	}

	var existing Favorite
	err := db.Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyFavorite
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check favorites: %w", err)
	}

	fav := Favorite{
		UserID:       userID,
		RestaurantID: restaurantID,
	}
	if err := db.Create(&fav).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyFavorite
		}
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	return &fav, nil
}

// RemoveFavorite drops a restaurant from the user's favorites
func (s *Service) RemoveFavorite(ctx context.Context, userID uint, restaurantID string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		Delete(&Favorite{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove favorite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}
