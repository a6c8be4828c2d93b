package dashboard

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

const recentOrdersLimit = 5

// Stats is the admin dashboard summary.
type Stats struct {
	TotalProducts   int64                       `json:"totalProducts"`
	TotalOrders     int64                       `json:"totalOrders"`
	TotalCategories int64                       `json:"totalCategories"`
	TotalUsers      int64                       `json:"totalUsers"`
	TotalRevenue    int64                       `json:"totalRevenue"`
	OrdersByStatus  map[enums.OrderStatus]int64 `json:"ordersByStatus"`
	RecentOrders    []models.Order              `json:"recentOrders"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: db}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	conn := s.db.WithContext(ctx)
	out := &Stats{OrdersByStatus: map[enums.OrderStatus]int64{}}

	counts := []struct {
		model any
		dst   *int64
	}{
		{&models.Product{}, &out.TotalProducts},
		{&models.Order{}, &out.TotalOrders},
		{&models.Category{}, &out.TotalCategories},
		{&models.User{}, &out.TotalUsers},
	}
	for _, c := range counts {
		if err := conn.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count rows")
		}
	}

	var revenue struct{ Total int64 }
	err := conn.Model(&models.Order{}).
		Select("COALESCE(SUM(final_amount), 0) AS total").
		Where("order_status = ?", enums.OrderStatusDelivered).
		Scan(&revenue).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}
	out.TotalRevenue = revenue.Total

	var byStatus []struct {
		OrderStatus enums.OrderStatus
		Count       int64
	}
	err = conn.Model(&models.Order{}).
		Select("order_status, COUNT(*) AS count").
		Group("order_status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders by status")
	}
	for _, row := range byStatus {
		out.OrdersByStatus[row.OrderStatus] = row.Count
	}

	if err := conn.Order("created_at DESC").Limit(recentOrdersLimit).Find(&out.RecentOrders).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent orders")
	}
	return out, nil
}
