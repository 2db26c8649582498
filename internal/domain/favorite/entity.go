// internal/domain/favorite/entity.go
package favorite

import (
	"errors"
	"time"
)

var (
	ErrAlreadyFavorite  = errors.New("restaurant is already in favorites")
	ErrFavoriteNotFound = errors.New("restaurant is not in favorites")
)

// Favorite marks a restaurant a user saved for quick access
type Favorite struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_favorites_user_restaurant" json:"user_id"`
	RestaurantID string    `gorm:"not null;size:64;uniqueIndex:idx_favorites_user_restaurant" json:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides the table name
func (Favorite) TableName() string {
	return "favorites"
}
