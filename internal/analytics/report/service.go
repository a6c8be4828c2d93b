package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

type loader interface {
	Orders(ctx context.Context, since time.Time) ([]OrderRow, error)
	Items(ctx context.Context, since time.Time) ([]ItemRow, error)
}

// Service answers GET /admin/analytics.
type Service struct {
	loader loader
	loc    *time.Location
	now    func() time.Time
}

func NewService(l loader, loc *time.Location) (*Service, error) {
	if l == nil {
		return nil, fmt.Errorf("report loader required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{loader: l, loc: loc, now: time.Now}, nil
}

// Generate builds the report for rawRange; an empty range means week.
func (s *Service) Generate(ctx context.Context, rawRange string) (*Report, error) {
	r := enums.TimeRangeWeek
	if v := strings.TrimSpace(rawRange); v != "" {
		parsed, err := enums.ParseTimeRange(strings.ToLower(v))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid timeRange")
		}
		r = parsed
	}

	now := s.now()
	since := Since(r, now)
	orders, err := s.loader.Orders(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders")
	}
	items, err := s.loader.Items(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order items")
	}
	out := Build(r, now, s.loc, orders, items)
	return &out, nil
}
