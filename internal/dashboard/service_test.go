package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
)

func TestStats(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client.DB())
	require.NoError(t, err)

	require.NoError(t, client.DB().Create(&models.Category{Name: "Trà", Slug: "tra", IsActive: true}).Error)
	require.NoError(t, client.DB().Create(&models.User{Name: "Lan", IsActive: true}).Error)

	base := time.Now().UTC().Add(-time.Hour)
	statuses := []enums.OrderStatus{
		enums.OrderStatusDelivered, enums.OrderStatusDelivered, enums.OrderStatusPending,
		enums.OrderStatusCancelled, enums.OrderStatusPending, enums.OrderStatusConfirmed,
	}
	for i, status := range statuses {
		order := models.Order{
			ShippingAddress: "x", TotalAmount: 10000, FinalAmount: int64(10000 * (i + 1)),
			PaymentMethod: enums.PaymentMethodCOD, PaymentStatus: enums.PaymentStatusPending, OrderStatus: status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, client.DB().Create(&order).Error)
	}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.TotalCategories)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Zero(t, stats.TotalProducts)
	assert.Equal(t, int64(30000), stats.TotalRevenue)
	assert.Equal(t, int64(2), stats.OrdersByStatus[enums.OrderStatusPending])
	assert.Equal(t, int64(1), stats.OrdersByStatus[enums.OrderStatusCancelled])
	require.Len(t, stats.RecentOrders, 5)
	assert.Equal(t, int64(60000), stats.RecentOrders[0].FinalAmount)
}
