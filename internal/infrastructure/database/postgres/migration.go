// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
	"github.com/your-org/food-delivery-backend/internal/domain/favorite"
	"github.com/your-org/food-delivery-backend/internal/domain/order"
	"github.com/your-org/food-delivery-backend/internal/domain/promo"
	"github.com/your-org/food-delivery-backend/internal/domain/review"
	"github.com/your-org/food-delivery-backend/internal/domain/user"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	// Define all models that need migration in dependency order
	models := []interface{}{
		// Catalog
		&catalog.Restaurant{},
		&catalog.MenuItem{},

		// Promo codes
		&promo.PromoCode{},

		// Address book
		&user.Address{},

		// Orders
		&order.Order{},
		&order.OrderStatusHistory{},

		// Customer feedback
		&review.Review{},
		&favorite.Favorite{},
	}

	for _, model := range models {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Catalog indexes
		"CREATE INDEX IF NOT EXISTS idx_restaurants_cuisine ON restaurants(cuisine)",
		"CREATE INDEX IF NOT EXISTS idx_restaurants_featured_rating ON restaurants(featured, rating DESC)",
		"CREATE INDEX IF NOT EXISTS idx_menu_items_restaurant_category ON menu_items(restaurant_id, category)",

		// Promo indexes
		"CREATE INDEX IF NOT EXISTS idx_promo_codes_code_active ON promo_codes(code, is_active)",

		// Address indexes
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at)",

		// Order status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",

		// Review and favorite indexes
		"CREATE INDEX IF NOT EXISTS idx_reviews_restaurant_created ON reviews(restaurant_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_favorites_user_created ON favorites(user_id, created_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.logger.WithFields(logrus.Fields{
		"created": successCount,
		"failed":  failCount,
	}).Info("Database indexes ensured")
	return nil
}

// SeedInitialData inserts the demo catalog and promo codes
func (m *Migration) SeedInitialData() error {
	if err := m.seedRestaurants(); err != nil {
		return fmt.Errorf("failed to seed restaurants: %w", err)
	}

	if err := m.seedPromoCodes(); err != nil {
		return fmt.Errorf("failed to seed promo codes: %w", err)
	}

	m.logger.Info("Initial data seeded")
	return nil
}

func (m *Migration) seedRestaurants() error {
	for _, restaurant := range seedRestaurants() {
		var existing catalog.Restaurant
		result := m.db.Where("id = ?", restaurant.ID).First(&existing)
		if result.Error == nil {
			m.logger.Debugf("Restaurant already exists: %s", restaurant.Name)
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		// Creating the restaurant also inserts its menu
		if err := m.db.Create(&restaurant).Error; err != nil {
			return err
		}
		m.logger.Infof("Created restaurant: %s (%d menu items)", restaurant.Name, len(restaurant.Menu))
	}
	return nil
}

func (m *Migration) seedPromoCodes() error {
	maxWelcomeUses := 1000

	codes := []promo.PromoCode{
		{
			Code:          "WELCOME10",
			DiscountType:  promo.DiscountPercentage,
			DiscountValue: 10,
			MaxUses:       &maxWelcomeUses,
			IsActive:      true,
		},
		{
			Code:          "FLAT50",
			DiscountType:  promo.DiscountFixed,
			DiscountValue: 5000, // $50.00, clamped to the subtotal
			IsActive:      true,
		},
		{
			Code:           "SAVE20",
			DiscountType:   promo.DiscountPercentage,
			DiscountValue:  20,
			MinOrderAmount: 2500, // $25.00
			IsActive:       true,
		},
	}

	for _, code := range codes {
		var existing promo.PromoCode
		result := m.db.Where("code = ?", code.Code).First(&existing)
		if result.Error == nil {
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}
		if err := m.db.Create(&code).Error; err != nil {
			return err
		}
		m.logger.Infof("Created promo code: %s", code.Code)
	}
	return nil
}

// DropAllTables drops every table this service owns
func (m *Migration) DropAllTables() error {
	m.logger.Warn("Dropping all database tables")

	// Reverse dependency order
	tables := []string{
		"favorites",
		"reviews",
		"order_status_history",
		"orders",
		"addresses",
		"promo_codes",
		"menu_items",
		"restaurants",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			m.logger.WithError(err).Warnf("Failed to drop table %s", table)
		}
	}
	return nil
}

func seedRestaurants() []catalog.Restaurant {
	return []catalog.Restaurant{
		{
			ID:           "burger-barn",
			Name:         "Burger Barn",
			Image:        "https://images.unsplash.com/photo-1568901346375-23c9450c58cd",
			Cuisine:      "American",
			Rating:       4.6,
			ReviewCount:  1284,
			DeliveryTime: "25-35 min",
			DeliveryFee:  299,
			MinOrder:     1000,
			Featured:     true,
			Menu: []catalog.MenuItem{
				{ID: "bb-classic", Name: "Classic Burger", Description: "Beef patty, cheddar, lettuce, tomato, house sauce", Price: 1250, Category: "Burgers", Popular: true},
				{ID: "bb-bacon", Name: "Bacon Smash", Description: "Double smashed patty with crispy bacon", Price: 1499, Category: "Burgers", Popular: true},
				{ID: "bb-veggie", Name: "Garden Burger", Description: "Black bean patty, avocado, pickled onion", Price: 1199, Category: "Burgers"},
				{ID: "bb-fries", Name: "Loaded Fries", Description: "Cheese sauce, scallions, jalapenos", Price: 699, Category: "Sides"},
				{ID: "bb-shake", Name: "Vanilla Shake", Description: "Hand-spun with real vanilla bean", Price: 599, Category: "Drinks"},
			},
		},
		{
			ID:           "sakura-sushi",
			Name:         "Sakura Sushi",
			Image:        "https://images.unsplash.com/photo-1579871494447-9811cf80d66c",
			Cuisine:      "Japanese",
			Rating:       4.8,
			ReviewCount:  932,
			DeliveryTime: "30-40 min",
			DeliveryFee:  299,
			MinOrder:     1500,
			Featured:     true,
			Menu: []catalog.MenuItem{
				{ID: "ss-salmon", Name: "Salmon Nigiri", Description: "Four pieces of fresh Atlantic salmon", Price: 899, Category: "Nigiri", Popular: true},
				{ID: "ss-dragon", Name: "Dragon Roll", Description: "Shrimp tempura, eel, avocado", Price: 1599, Category: "Rolls", Popular: true},
				{ID: "ss-california", Name: "California Roll", Description: "Crab, cucumber, avocado", Price: 999, Category: "Rolls"},
				{ID: "ss-miso", Name: "Miso Soup", Description: "Tofu, wakame, scallion", Price: 399, Category: "Starters"},
			},
		},
		{
			ID:           "pasta-fresca",
			Name:         "Pasta Fresca",
			Image:        "https://images.unsplash.com/photo-1555949258-eb67b1ef0ceb",
			Cuisine:      "Italian",
			Rating:       4.5,
			ReviewCount:  611,
			DeliveryTime: "35-45 min",
			DeliveryFee:  299,
			MinOrder:     1200,
			Menu: []catalog.MenuItem{
				{ID: "pf-carbonara", Name: "Spaghetti Carbonara", Description: "Guanciale, pecorino, egg yolk", Price: 1650, Category: "Pasta", Popular: true},
				{ID: "pf-margherita", Name: "Margherita Pizza", Description: "San Marzano tomato, fior di latte, basil", Price: 1400, Category: "Pizza", Popular: true},
				{ID: "pf-tiramisu", Name: "Tiramisu", Description: "Espresso-soaked savoiardi, mascarpone", Price: 750, Category: "Desserts"},
			},
		},
		{
			ID:           "spice-route",
			Name:         "Spice Route",
			Image:        "https://images.unsplash.com/photo-1585937421612-70a008356fbe",
			Cuisine:      "Indian",
			Rating:       4.7,
			ReviewCount:  1057,
			DeliveryTime: "30-40 min",
			DeliveryFee:  299,
			MinOrder:     1000,
			Featured:     true,
			Menu: []catalog.MenuItem{
				{ID: "sr-butter-chicken", Name: "Butter Chicken", Description: "Tandoori chicken in a tomato cream sauce", Price: 1599, Category: "Curries", Popular: true},
				{ID: "sr-paneer", Name: "Palak Paneer", Description: "Cottage cheese in spiced spinach", Price: 1399, Category: "Curries"},
				{ID: "sr-naan", Name: "Garlic Naan", Description: "Fresh from the tandoor", Price: 349, Category: "Breads", Popular: true},
				{ID: "sr-lassi", Name: "Mango Lassi", Description: "Yogurt, alphonso mango, cardamom", Price: 499, Category: "Drinks"},
			},
		},
	}
}
