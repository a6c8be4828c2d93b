package orders

import (
	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
)

// UnknownProductName labels order lines whose product has since been deleted.
const UnknownProductName = "Unknown Product"

// OrderSummary is one row of a customer's order history.
type OrderSummary struct {
	models.Order
	ItemCount int `json:"itemCount" gorm:"column:item_count"`
}

// AdminOrderRow is one row of the admin order table.
type AdminOrderRow struct {
	models.Order
	UserName  string  `json:"userName" gorm:"column:user_name"`
	UserEmail *string `json:"userEmail,omitempty" gorm:"column:user_email"`
	ItemCount int     `json:"itemCount" gorm:"column:item_count"`
}

type ToppingDetail struct {
	models.OrderItemTopping
	Name string `json:"name"`
}

type ItemDetail struct {
	models.OrderItem
	ProductName  string          `json:"productName"`
	ProductImage *string         `json:"productImage,omitempty"`
	Toppings     []ToppingDetail `json:"toppings"`
}

// OrderDetail is the order page with catalog names resolved.
type OrderDetail struct {
	models.Order
	Items []ItemDetail `json:"items"`
}

// StatusUpdate is the admin status change body.
type StatusUpdate struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

func orderProductIDs(order models.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func orderToppingIDs(order models.Order) []uuid.UUID {
	var ids []uuid.UUID
	for _, item := range order.Items {
		for _, t := range item.Toppings {
			ids = append(ids, t.ToppingID)
		}
	}
	return ids
}
