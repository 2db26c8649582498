// internal/domain/catalog/entity.go
package catalog

import (
	"errors"
	"time"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrMenuItemNotFound   = errors.New("menu item not found")
)

// Restaurant represents a restaurant and its menu
type Restaurant struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	Image        string    `gorm:"size:500" json:"image"`
	Cuisine      string    `gorm:"size:100;index" json:"cuisine"`
	Rating       float64   `gorm:"default:0" json:"rating"`
	ReviewCount  int       `gorm:"default:0" json:"review_count"`
	DeliveryTime string    `gorm:"size:50" json:"delivery_time"`  // e.g. "25-35 min"
	DeliveryFee  int64     `gorm:"default:0" json:"delivery_fee"` // In cents
	MinOrder     int64     `gorm:"default:0" json:"min_order"`    // In cents
	Featured     bool      `gorm:"default:false" json:"featured"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Menu []MenuItem `gorm:"foreignKey:RestaurantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"menu,omitempty"`
}

// MenuItem represents a dish offered by a restaurant
type MenuItem struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	RestaurantID string    `gorm:"not null;index;size:64" json:"restaurant_id"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Price        int64     `gorm:"not null" json:"price"` // In cents
	Image        string    `gorm:"size:500" json:"image"`
	Category     string    `gorm:"size:100" json:"category"`
	Popular      bool      `gorm:"default:false" json:"popular"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName overrides
func (Restaurant) TableName() string { return "restaurants" }
func (MenuItem) TableName() string   { return "menu_items" }

// FindMenuItem returns the menu item with the given id
func (r *Restaurant) FindMenuItem(itemID string) (*MenuItem, bool) {
	for i := range r.Menu {
		if r.Menu[i].ID == itemID {
			return &r.Menu[i], true
		}
	}
	return nil, false
}

// Filter narrows a restaurant listing
type Filter struct {
	Cuisine      string `form:"cuisine"`
	Search       string `form:"q"`
	FeaturedOnly bool   `form:"featured"`
}
