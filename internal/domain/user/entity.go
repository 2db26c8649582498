// internal/domain/user/entity.go
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrAddressNotFound   = errors.New("address not found")
	ErrAddressIncomplete = errors.New("street address, city, state and zip code are required")
)

// Address represents a saved delivery address
type Address struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Label         string    `gorm:"size:50;default:'Home'" json:"label"`
	StreetAddress string    `gorm:"size:255;not null" json:"street_address"`
	Apartment     string    `gorm:"size:100" json:"apartment,omitempty"`
	City          string    `gorm:"size:100;not null" json:"city"`
	State         string    `gorm:"size:100;not null" json:"state"`
	ZipCode       string    `gorm:"size:20;not null" json:"zip_code"`
	IsDefault     bool      `gorm:"default:false" json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName overrides the table name for Address
func (Address) TableName() string {
	return "addresses"
}

// Lines renders the address the way it is printed on an order
func (a *Address) Lines() []string {
	street := a.StreetAddress
	if a.Apartment != "" {
		street = fmt.Sprintf("%s, %s", street, a.Apartment)
	}
	return []string{street, fmt.Sprintf("%s, %s %s", a.City, a.State, a.ZipCode)}
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	Label         string `json:"label"`
	StreetAddress string `json:"street_address"`
	Apartment     string `json:"apartment"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	IsDefault     bool   `json:"is_default"`
}

// Validate checks that every required field is present
func (r *CreateAddressRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.StreetAddress) == "" {
		missing = append(missing, "street_address")
	}
	if strings.TrimSpace(r.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(r.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(r.ZipCode) == "" {
		missing = append(missing, "zip_code")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrAddressIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// ToAddress builds the normalized address described by r. The label
// defaults to "Home".
func (r *CreateAddressRequest) ToAddress(userID uint) Address {
	label := strings.TrimSpace(r.Label)
	if label == "" {
		label = "Home"
	}

	return Address{
		UserID:        userID,
		Label:         label,
		StreetAddress: strings.TrimSpace(r.StreetAddress),
		Apartment:     strings.TrimSpace(r.Apartment),
		City:          strings.TrimSpace(r.City),
		State:         strings.TrimSpace(r.State),
		ZipCode:       strings.TrimSpace(r.ZipCode),
		IsDefault:     r.IsDefault,
	}
}
