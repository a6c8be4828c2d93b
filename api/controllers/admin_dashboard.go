package controllers

import (
	"context"
	"net/http"

	"github.com/brewbar/bubbletea-backend/api/responses"
	"github.com/brewbar/bubbletea-backend/internal/analytics/report"
	"github.com/brewbar/bubbletea-backend/internal/dashboard"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
)

type reportGenerator interface {
	Generate(ctx context.Context, rawRange string) (*report.Report, error)
}

func AdminDashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AdminAnalytics reports revenue and product performance for ?timeRange=
// (week when absent). An unknown range is a validation error.
func AdminAnalytics(svc reportGenerator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics unavailable"))
			return
		}

		result, err := svc.Generate(r.Context(), r.URL.Query().Get("timeRange"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
