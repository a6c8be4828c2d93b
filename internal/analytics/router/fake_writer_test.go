package router

import (
	"context"

	"github.com/brewbar/bubbletea-backend/internal/analytics/types"
)

type fakeWriter struct {
	orders   []types.OrderFactRow
	statuses []types.OrderStatusFactRow
	err      error
}

func (f *fakeWriter) InsertOrderFact(_ context.Context, row types.OrderFactRow) error {
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, row)
	return nil
}

func (f *fakeWriter) InsertStatusFact(_ context.Context, row types.OrderStatusFactRow) error {
	if f.err != nil {
		return f.err
	}
	f.statuses = append(f.statuses, row)
	return nil
}
