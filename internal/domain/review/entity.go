// internal/domain/review/entity.go
package review

import (
	"errors"
	"math"
	"strings"
	"time"
)

const maxCommentLength = 1000

var (
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong    = errors.New("comment must be at most 1000 characters")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotDelivered = errors.New("only delivered orders can be reviewed")
	ErrAlreadyReviewed   = errors.New("you have already reviewed this order")
)

// Review is a customer's rating of a delivered order
type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      string    `gorm:"not null;size:36;uniqueIndex" json:"order_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	RestaurantID string    `gorm:"not null;size:64;index" json:"restaurant_id"`
	Rating       int       `gorm:"not null" json:"rating"`
	Comment      *string   `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides the table name
func (Review) TableName() string {
	return "reviews"
}

// CreateReviewRequest represents a review submission
type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Validate checks the rating range and comment length
func (r *CreateReviewRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	if len([]rune(strings.TrimSpace(r.Comment))) > maxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

// RatingLabel names a star rating
func RatingLabel(rating int) string {
	switch rating {
	case 1:
		return "Poor"
	case 2:
		return "Fair"
	case 3:
		return "Good"
	case 4:
		return "Very Good"
	case 5:
		return "Excellent"
	}
	return ""
}

// NextAverage folds one more rating into a running average, rounded to one decimal
func NextAverage(current float64, count, rating int) float64 {
	if count < 0 {
		count = 0
	}
	avg := (current*float64(count) + float64(rating)) / float64(count+1)
	return math.Round(avg*10) / 10
}
