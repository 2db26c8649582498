// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const restaurantCacheTTL = 10 * time.Minute

// Service provides read-only access to restaurants and menus
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	logger      logrus.FieldLogger
}

// NewService creates a new catalog service. redisClient may be nil to disable caching.
func NewService(db *gorm.DB, redisClient *redis.Client, logger logrus.FieldLogger) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		logger:      logger.WithField("component", "catalog"),
	}
}

// GetRestaurant retrieves a restaurant with its menu
func (s *Service) GetRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	if cached := s.getCached(ctx, id); cached != nil {
		return cached, nil
	}

	var restaurant Restaurant
	result := s.db.WithContext(ctx).
		Preload("Menu", func(db *gorm.DB) *gorm.DB {
			return db.Order("category ASC, name ASC")
		}).
		Where("id = ?", id).
		First(&restaurant)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to retrieve restaurant: %w", result.Error)
	}

	s.setCached(ctx, &restaurant)
	return &restaurant, nil
}

// ListRestaurants lists restaurants matching the filter, featured first
func (s *Service) ListRestaurants(ctx context.Context, filter Filter) ([]Restaurant, error) {
	var restaurants []Restaurant

	query := s.db.WithContext(ctx).Model(&Restaurant{})

	if filter.Cuisine != "" {
		query = query.Where("LOWER(cuisine) = ?", strings.ToLower(filter.Cuisine))
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(cuisine) LIKE ?", pattern, pattern)
	}

	if filter.FeaturedOnly {
		query = query.Where("featured = ?", true)
	}

	if err := query.Order("featured DESC, rating DESC").Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve restaurants: %w", err)
	}

	return restaurants, nil
}

// GetMenuItem resolves a menu item of a restaurant
func (s *Service) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*Restaurant, *MenuItem, error) {
	restaurant, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, nil, err
	}

	item, ok := restaurant.FindMenuItem(itemID)
	if !ok {
		return nil, nil, ErrMenuItemNotFound
	}

	return restaurant, item, nil
}

// Invalidate drops the cached copy of a restaurant
func (s *Service) Invalidate(ctx context.Context, id string) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, restaurantCacheKey(id)).Err(); err != nil {
		s.logger.WithError(err).WithField("restaurant_id", id).Warn("Restaurant cache invalidation failed")
	}
}

func restaurantCacheKey(id string) string {
	return fmt.Sprintf("catalog:restaurant:%s", id)
}

func (s *Service) getCached(ctx context.Context, id string) *Restaurant {
	if s.redisClient == nil {
		return nil
	}

	data, err := s.redisClient.Get(ctx, restaurantCacheKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).Warn("Restaurant cache read failed")
		}
		return nil
	}

	var restaurant Restaurant
	if err := json.Unmarshal([]byte(data), &restaurant); err != nil {
		return nil
	}
	return &restaurant
}

func (s *Service) setCached(ctx context.Context, restaurant *Restaurant) {
	if s.redisClient == nil {
		return
	}

	data, err := json.Marshal(restaurant)
	if err != nil {
		return
	}

	if err := s.redisClient.Set(ctx, restaurantCacheKey(restaurant.ID), data, restaurantCacheTTL).Err(); err != nil {
		s.logger.WithError(err).Warn("Restaurant cache write failed")
	}
}
