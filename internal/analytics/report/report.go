// Package report builds the admin sales analytics from orders in the primary store.
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/pkg/enums"
)

const (
	topProductsLimit   = 5
	unknownProductName = "Unknown Product"
)

// OrderRow is the slice of an order the report reads.
type OrderRow struct {
	ID            uuid.UUID           `db:"id"`
	CreatedAt     time.Time           `db:"created_at"`
	FinalAmount   int64               `db:"final_amount"`
	OrderStatus   enums.OrderStatus   `db:"order_status"`
	PaymentStatus enums.PaymentStatus `db:"payment_status"`
}

// Completed orders count toward revenue.
func (o OrderRow) Completed() bool {
	return o.OrderStatus == enums.OrderStatusDelivered || o.PaymentStatus == enums.PaymentStatusPaid
}

// ItemRow is an order line joined with its product and category names, when they
// still exist.
type ItemRow struct {
	OrderID      uuid.UUID `db:"order_id"`
	ProductID    uuid.UUID `db:"product_id"`
	Quantity     int64     `db:"quantity"`
	Subtotal     int64     `db:"subtotal"`
	ProductName  *string   `db:"product_name"`
	CategoryName *string   `db:"category_name"`
}

type SalesPoint struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

type CategorySales struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

type ProductSales struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Revenue   int64     `json:"revenue"`
	Quantity  int64     `json:"quantity"`
}

// Report is the admin analytics response.
type Report struct {
	TimeRange         enums.TimeRange `json:"timeRange"`
	TotalSales        int64           `json:"totalSales"`
	TotalOrders       int             `json:"totalOrders"`
	AverageOrderValue int64           `json:"averageOrderValue"`
	SalesData         []SalesPoint    `json:"salesData"`
	SalesByCategory   []CategorySales `json:"salesByCategory"`
	TopProducts       []ProductSales  `json:"topProducts"`
}

// Since is the oldest creation time included for r.
func Since(r enums.TimeRange, now time.Time) time.Time {
	return now.AddDate(0, 0, -r.LookbackDays())
}

// Build aggregates orders created within the range. Orders older than the
// lookback are ignored even if the caller passed them in.
func Build(r enums.TimeRange, now time.Time, loc *time.Location, orders []OrderRow, items []ItemRow) Report {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	since := Since(r, now)

	labels, keyOf := buckets(r, now)
	perBucket := make(map[string]int64, len(labels))

	out := Report{TimeRange: r}
	completed := make(map[uuid.UUID]struct{})
	for _, o := range orders {
		if o.CreatedAt.Before(since) || o.CreatedAt.After(now) {
			continue
		}
		out.TotalOrders++
		if !o.Completed() {
			continue
		}
		completed[o.ID] = struct{}{}
		out.TotalSales += o.FinalAmount
		perBucket[keyOf(o.CreatedAt.In(loc))] += o.FinalAmount
	}
	if out.TotalOrders > 0 {
		out.AverageOrderValue = int64(math.Round(float64(out.TotalSales) / float64(out.TotalOrders)))
	}

	out.SalesData = make([]SalesPoint, 0, len(labels))
	for _, label := range labels {
		out.SalesData = append(out.SalesData, SalesPoint{Label: label, Amount: perBucket[label]})
	}

	byCategory := map[string]int64{}
	byProduct := map[uuid.UUID]*ProductSales{}
	for _, item := range items {
		if _, ok := completed[item.OrderID]; !ok {
			continue
		}
		if item.ProductName != nil && item.CategoryName != nil {
			byCategory[*item.CategoryName] += item.Subtotal
		}
		p, ok := byProduct[item.ProductID]
		if !ok {
			name := unknownProductName
			if item.ProductName != nil {
				name = *item.ProductName
			}
			p = &ProductSales{ProductID: item.ProductID, Name: name}
			byProduct[item.ProductID] = p
		}
		p.Revenue += item.Subtotal
		p.Quantity += item.Quantity
	}

	out.SalesByCategory = make([]CategorySales, 0, len(byCategory))
	for name, amount := range byCategory {
		out.SalesByCategory = append(out.SalesByCategory, CategorySales{Name: name, Amount: amount})
	}
	sort.Slice(out.SalesByCategory, func(i, j int) bool {
		a, b := out.SalesByCategory[i], out.SalesByCategory[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Name < b.Name
	})

	out.TopProducts = make([]ProductSales, 0, len(byProduct))
	for _, p := range byProduct {
		out.TopProducts = append(out.TopProducts, *p)
	}
	sort.Slice(out.TopProducts, func(i, j int) bool {
		a, b := out.TopProducts[i], out.TopProducts[j]
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Name < b.Name
	})
	if len(out.TopProducts) > topProductsLimit {
		out.TopProducts = out.TopProducts[:topProductsLimit]
	}
	return out
}

// buckets returns the labels oldest first plus the function mapping a local time
// onto its label.
func buckets(r enums.TimeRange, now time.Time) ([]string, func(time.Time) string) {
	switch r {
	case enums.TimeRangeDay:
		key := func(t time.Time) string { return fmt.Sprintf("%dh", t.Hour()) }
		labels := make([]string, 0, 24)
		for i := 23; i >= 0; i-- {
			labels = append(labels, key(now.Add(-time.Duration(i)*time.Hour)))
		}
		return labels, key
	case enums.TimeRangeYear:
		key := func(t time.Time) string { return fmt.Sprintf("%d/%d", int(t.Month()), t.Year()) }
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		labels := make([]string, 0, 12)
		for i := 11; i >= 0; i-- {
			labels = append(labels, key(first.AddDate(0, -i, 0)))
		}
		return labels, key
	default:
		days := 7
		if r == enums.TimeRangeMonth {
			days = 30
		}
		key := func(t time.Time) string { return fmt.Sprintf("%d/%d", t.Day(), int(t.Month())) }
		labels := make([]string, 0, days)
		for i := days - 1; i >= 0; i-- {
			labels = append(labels, key(now.AddDate(0, 0, -i)))
		}
		return labels, key
	}
}
