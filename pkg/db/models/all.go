package models

// All lists every model in dependency order; tests auto-migrate them into sqlite.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&ProductOption{},
		&Topping{},
		&ProductTopping{},
		&Review{},
		&CartItem{},
		&WishlistItem{},
		&Address{},
		&Promotion{},
		&Order{},
		&OrderItem{},
		&OrderItemTopping{},
		&StoreSetting{},
		&Media{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
