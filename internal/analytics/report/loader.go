package report

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

const ordersQuery = `
SELECT id, created_at, final_amount, order_status, payment_status
FROM orders
WHERE created_at >= ?
ORDER BY created_at`

const itemsQuery = `
SELECT oi.order_id, oi.product_id, oi.quantity, oi.subtotal,
       p.name AS product_name, c.name AS category_name
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
LEFT JOIN products p ON p.id = oi.product_id
LEFT JOIN categories c ON c.id = p.category_id
WHERE o.created_at >= ?`

// SQLLoader reads report rows with hand written queries over the shared pool.
type SQLLoader struct {
	db *sqlx.DB
}

func NewSQLLoader(db *sqlx.DB) *SQLLoader {
	return &SQLLoader{db: db}
}

func (l *SQLLoader) Orders(ctx context.Context, since time.Time) ([]OrderRow, error) {
	var rows []OrderRow
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(ordersQuery), since.UTC()); err != nil {
		return nil, err
	}
	return rows, nil
}

func (l *SQLLoader) Items(ctx context.Context, since time.Time) ([]ItemRow, error) {
	var rows []ItemRow
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(itemsQuery), since.UTC()); err != nil {
		return nil, err
	}
	return rows, nil
}
