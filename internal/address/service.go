package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

// AddressInput is the create/update body.
type AddressInput struct {
	RecipientName string  `json:"recipientName" validate:"required,max=120"`
	PhoneNumber   string  `json:"phoneNumber" validate:"required,min=8,max=20"`
	StreetAddress string  `json:"streetAddress" validate:"required,max=255"`
	Ward          *string `json:"ward" validate:"omitempty,max=120"`
	District      string  `json:"district" validate:"required,max=120"`
	City          string  `json:"city" validate:"required,max=120"`
	IsDefault     bool    `json:"isDefault"`
}

// Service manages a user's address book. At most one address per user is the default.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error)
	Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*models.Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	dbClient *db.Client
}

func NewService(dbClient *db.Client) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{dbClient: dbClient}, nil
}

// Format renders the address as the single line stored on orders.
func Format(a models.Address) string {
	parts := []string{a.StreetAddress}
	if a.Ward != nil && strings.TrimSpace(*a.Ward) != "" {
		parts = append(parts, strings.TrimSpace(*a.Ward))
	}
	parts = append(parts, a.District, a.City)
	return strings.Join(parts, ", ")
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := s.dbClient.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	return s.load(s.dbClient.DB().WithContext(ctx), userID, id)
}

func (s *service) load(q *gorm.DB, userID, id uuid.UUID) (*models.Address, error) {
	var addr models.Address
	if err := q.Where("id = ? AND user_id = ?", id, userID).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	return &addr, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	addr := &models.Address{UserID: userID}
	input.apply(addr)

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		return tx.Create(addr).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
	}
	return addr, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	var addr *models.Address
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.load(tx, userID, id)
		if err != nil {
			return err
		}
		wasDefault := existing.IsDefault
		input.apply(existing)
		// the default can only move to another address, never be switched off
		if wasDefault {
			existing.IsDefault = true
		}
		if existing.IsDefault && !wasDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		addr = existing
		return tx.Save(existing).Error
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}
	return addr, nil
}

// Delete removes the address; when it was the default the oldest remaining one takes over.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.load(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(existing).Error; err != nil {
			return err
		}
		if !existing.IsDefault {
			return nil
		}
		var next models.Address
		err = tx.Where("user_id = ?", userID).Order("created_at ASC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	return nil
}

func clearDefault(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func validateInput(in AddressInput) error {
	for field, value := range map[string]string{
		"recipientName": in.RecipientName,
		"phoneNumber":   in.PhoneNumber,
		"streetAddress": in.StreetAddress,
		"district":      in.District,
		"city":          in.City,
	} {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", field)
		}
	}
	return nil
}

func (in AddressInput) apply(a *models.Address) {
	a.RecipientName = strings.TrimSpace(in.RecipientName)
	a.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	a.StreetAddress = strings.TrimSpace(in.StreetAddress)
	a.Ward = in.Ward
	a.District = strings.TrimSpace(in.District)
	a.City = strings.TrimSpace(in.City)
	a.IsDefault = in.IsDefault
}
