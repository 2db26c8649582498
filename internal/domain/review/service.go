// internal/domain/review/service.go
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
	"github.com/your-org/food-delivery-backend/internal/domain/order"
)

// OrderReader resolves an order owned by a user
type OrderReader interface {
	GetForUser(ctx context.Context, id string, userID uint) (*order.Order, error)
}

// CacheInvalidator drops cached restaurant data after its rating changes
type CacheInvalidator interface {
	Invalidate(ctx context.Context, restaurantID string)
}

// Service handles order reviews and restaurant ratings
type Service struct {
	db     *gorm.DB
	orders OrderReader
	cache  CacheInvalidator
	logger logrus.FieldLogger
}

// NewService creates a new review service. cache may be nil.
func NewService(db *gorm.DB, orders OrderReader, cache CacheInvalidator, logger logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		orders: orders,
		cache:  cache,
		logger: logger,
	}
}

// CreateReview rates a delivered order and folds the rating into its
// restaurant's average. Each order can be reviewed once.
func (s *Service) CreateReview(ctx context.Context, userID uint, orderID string, req *CreateReviewRequest) (*Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if o.Status != order.OrderStatusDelivered {
		return nil, ErrOrderNotDelivered
	}

	rev := Review{
		OrderID:      o.ID,
		UserID:       userID,
		RestaurantID: o.RestaurantID,
		Rating:       req.Rating,
	}
	if comment := strings.TrimSpace(req.Comment); comment != "" {
		rev.Comment = &comment
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Review{}).Where("order_id = ?", o.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if count > 0 {
			return ErrAlreadyReviewed
		}

		if err := tx.Create(&rev).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyReviewed
			}
			return fmt.Errorf("failed to create review: %w", err)
		}

		// Row lock so concurrent reviews fold into the average one at a time
		var restaurant catalog.Restaurant
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Select("id", "rating", "review_count").
			Where("id = ?", o.RestaurantID).
			First(&restaurant).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Restaurant left the catalog; keep the review
				return nil
			}
			return fmt.Errorf("failed to load restaurant: %w", err)
		}

		return tx.Model(&catalog.Restaurant{}).
			Where("id = ?", restaurant.ID).
			Updates(map[string]interface{}{
				"rating":       NextAverage(restaurant.Rating, restaurant.ReviewCount, req.Rating),
				"review_count": gorm.Expr("review_count + 1"),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, o.RestaurantID)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":      o.ID,
		"restaurant_id": o.RestaurantID,
		"rating":        req.Rating,
	}).Info("Order reviewed")

	return &rev, nil
}

// ListRestaurantReviews returns the newest reviews of a restaurant
func (s *Service) ListRestaurantReviews(ctx context.Context, restaurantID string, limit int) ([]Review, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var reviews []Review
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}
	return reviews, nil
}

// GetOrderReview returns the review of one of the user's orders, or nil if
// the order has not been reviewed
func (s *Service) GetOrderReview(ctx context.Context, userID uint, orderID string) (*Review, error) {
	o, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	var rev Review
	err = s.db.WithContext(ctx).Where("order_id = ?", o.ID).First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve review: %w", err)
	}
	return &rev, nil
}
