// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// AddressService handles the address book
type AddressService struct {
	db *gorm.DB
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{
		db: db,
	}
}

// ListAddresses retrieves all addresses for a user, default first
func (s *AddressService) ListAddresses(ctx context.Context, userID uint) ([]Address, error) {
	var addresses []Address

	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}

	return addresses, nil
}

// GetAddress retrieves a specific address for a user
func (s *AddressService) GetAddress(ctx context.Context, userID, addressID uint) (*Address, error) {
	var address Address
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).First(&address)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to retrieve address: %w", result.Error)
	}

	return &address, nil
}

// CreateAddress creates a new address for a user. The first address a user
// saves becomes the default.
func (s *AddressService) CreateAddress(ctx context.Context, userID uint, req *CreateAddressRequest) (*Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address := req.ToAddress(userID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if count == 0 {
			address.IsDefault = true
		}

		// If this is set as default, unset the previous default
		if address.IsDefault {
			if err := unsetDefaultAddresses(tx, userID); err != nil {
				return err
			}
		}

		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &address, nil
}

// SetDefaultAddress marks an address as the user's default, unsetting the previous one
func (s *AddressService) SetDefaultAddress(ctx context.Context, userID, addressID uint) error {
	address, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := unsetDefaultAddresses(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(address).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		return nil
	})
}

// DeleteAddress deletes an address
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).Delete(&Address{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete address: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}

	return nil
}

// unsetDefaultAddresses removes the default flag from all of a user's addresses
func unsetDefaultAddresses(tx *gorm.DB, userID uint) error {
	if err := tx.Model(&Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to unset default address: %w", err)
	}
	return nil
}
