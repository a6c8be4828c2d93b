// Package seed loads the default menu and an optional admin account.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/config"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/slug"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// Summary counts what a run created. Existing rows are left untouched.
type Summary struct {
	Categories int
	Products   int
	Toppings   int
	Links      int
	Admin      bool
}

type Seeder struct {
	db      txRunner
	hasher  passwordHasher
	admin   config.SeedConfig
	catalog *Catalog
	logg    *logger.Logger
}

func NewSeeder(db txRunner, hasher passwordHasher, admin config.SeedConfig, catalog *Catalog, logg *logger.Logger) (*Seeder, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if hasher == nil && admin.AdminEmail != "" {
		return nil, fmt.Errorf("password hasher required for admin seed")
	}
	return &Seeder{db: db, hasher: hasher, admin: admin, catalog: catalog, logg: logg}, nil
}

// Run inserts whatever is missing, matching toppings by name and categories and
// products by slug.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		toppingIDs, err := s.seedToppings(tx, &sum)
		if err != nil {
			return err
		}
		for _, cat := range s.catalog.Categories {
			category, err := s.seedCategory(tx, cat, &sum)
			if err != nil {
				return err
			}
			for _, p := range cat.Products {
				if err := s.seedProduct(tx, category, p, toppingIDs, &sum); err != nil {
					return err
				}
			}
		}
		return s.seedAdmin(tx, &sum)
	})
	if err != nil {
		return Summary{}, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"categories": sum.Categories,
			"products":   sum.Products,
			"toppings":   sum.Toppings,
			"links":      sum.Links,
			"admin":      sum.Admin,
		}), "seed complete")
	}
	return sum, nil
}

func (s *Seeder) seedToppings(tx *gorm.DB, sum *Summary) (map[string]models.Topping, error) {
	out := make(map[string]models.Topping, len(s.catalog.Toppings))
	for _, spec := range s.catalog.Toppings {
		var row models.Topping
		err := tx.Where("name = ?", spec.Name).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.Topping{Name: spec.Name, Price: spec.Price, IsAvailable: true}
			if err := tx.Create(&row).Error; err != nil {
				return nil, fmt.Errorf("create topping %q: %w", spec.Name, err)
			}
			sum.Toppings++
		case err != nil:
			return nil, fmt.Errorf("load topping %q: %w", spec.Name, err)
		}
		out[spec.Name] = row
	}
	return out, nil
}

func (s *Seeder) seedCategory(tx *gorm.DB, spec CategorySpec, sum *Summary) (models.Category, error) {
	var row models.Category
	categorySlug := slug.Make(spec.Name)
	err := tx.Where("slug = ?", categorySlug).First(&row).Error
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return row, fmt.Errorf("load category %q: %w", spec.Name, err)
	}
	row = models.Category{Name: spec.Name, Slug: categorySlug, Description: optional(spec.Description), IsActive: true}
	if err := tx.Create(&row).Error; err != nil {
		return row, fmt.Errorf("create category %q: %w", spec.Name, err)
	}
	sum.Categories++
	return row, nil
}

func (s *Seeder) seedProduct(tx *gorm.DB, category models.Category, spec ProductSpec, toppings map[string]models.Topping, sum *Summary) error {
	var row models.Product
	productSlug := slug.Make(spec.Name)
	err := tx.Where("slug = ?", productSlug).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.Product{
			Name:        spec.Name,
			Description: optional(spec.Description),
			CategoryID:  category.ID,
			BasePrice:   spec.BasePrice,
			IsAvailable: true,
			Slug:        productSlug,
			Ingredients: spec.Ingredients,
		}
		for _, o := range s.catalog.Options {
			row.Options = append(row.Options, models.ProductOption{
				OptionGroup:     o.Group,
				OptionValue:     o.Value,
				PriceAdjustment: o.PriceAdjustment,
				IsDefault:       o.Default,
			})
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create product %q: %w", spec.Name, err)
		}
		sum.Products++
	case err != nil:
		return fmt.Errorf("load product %q: %w", spec.Name, err)
	}

	for _, name := range spec.Toppings {
		topping := toppings[name]
		var n int64
		if err := tx.Model(&models.ProductTopping{}).
			Where("product_id = ? AND topping_id = ?", row.ID, topping.ID).
			Count(&n).Error; err != nil {
			return fmt.Errorf("check topping link: %w", err)
		}
		if n > 0 {
			continue
		}
		if err := tx.Create(&models.ProductTopping{ProductID: row.ID, ToppingID: topping.ID}).Error; err != nil {
			return fmt.Errorf("link %q to %q: %w", name, spec.Name, err)
		}
		sum.Links++
	}
	return nil
}

func (s *Seeder) seedAdmin(tx *gorm.DB, sum *Summary) error {
	email := strings.ToLower(strings.TrimSpace(s.admin.AdminEmail))
	if email == "" || s.admin.AdminPassword == "" {
		return nil
	}
	var n int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if n > 0 {
		return nil
	}
	hash, err := s.hasher.Hash(s.admin.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	name := strings.TrimSpace(s.admin.AdminName)
	if name == "" {
		name = "Admin"
	}
	user := models.User{
		Name:         name,
		Email:        &email,
		PasswordHash: &hash,
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	if err := tx.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	sum.Admin = true
	return nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
