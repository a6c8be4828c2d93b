package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/api/middleware"
	internalorders "github.com/brewbar/bubbletea-backend/internal/orders"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/outbox"
	"github.com/brewbar/bubbletea-backend/pkg/pagination"
)

type stubOrdersService struct {
	summaries  []internalorders.OrderSummary
	detail     *internalorders.OrderDetail
	err        error
	lastFilter internalorders.AdminFilter
	lastStatus enums.OrderStatus
	lastActor  *outbox.ActorRef
}

func (s *stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID) ([]internalorders.OrderSummary, error) {
	return s.summaries, s.err
}

func (s *stubOrdersService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*internalorders.OrderDetail, error) {
	return s.detail, s.err
}

func (s *stubOrdersService) AdminList(ctx context.Context, filter internalorders.AdminFilter) (pagination.Page[internalorders.AdminOrderRow], error) {
	s.lastFilter = filter
	return pagination.Page[internalorders.AdminOrderRow]{}, s.err
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error) {
	s.lastStatus = to
	s.lastActor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{ID: orderID, OrderStatus: to}, nil
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func withCaller(req *http.Request, userID uuid.UUID, role string) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func TestListReturnsSummaries(t *testing.T) {
	svc := &stubOrdersService{summaries: []internalorders.OrderSummary{
		{Order: models.Order{ID: uuid.New(), FinalAmount: 75000}, ItemCount: 1},
	}}
	req := withCaller(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), uuid.New(), "user")
	resp := httptest.NewRecorder()

	List(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []internalorders.OrderSummary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].FinalAmount != 75000 {
		t.Fatalf("unexpected summaries %+v", envelope.Data)
	}
}

func TestDetailOtherUsersOrderIsNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	orderID := uuid.New()
	req := withCaller(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil), uuid.New(), "user")
	req = withRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()

	Detail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestDetailRejectsMalformedID(t *testing.T) {
	req := withCaller(httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope", nil), uuid.New(), "user")
	req = withRouteParam(req, "orderId", "nope")
	resp := httptest.NewRecorder()

	Detail(&stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminListParsesStatusFilter(t *testing.T) {
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=preparing&limit=5", nil)
	resp := httptest.NewRecorder()

	AdminList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastFilter.Status == nil || *svc.lastFilter.Status != enums.OrderStatusPreparing {
		t.Fatalf("expected preparing filter, got %+v", svc.lastFilter.Status)
	}
	if svc.lastFilter.Limit != 5 {
		t.Fatalf("expected limit 5, got %d", svc.lastFilter.Limit)
	}
}

func TestAdminListRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=lost", nil)
	resp := httptest.NewRecorder()

	AdminList(&stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminUpdateStatusRecordsActor(t *testing.T) {
	svc := &stubOrdersService{}
	adminID := uuid.New()
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"shipping"}`))
	req = withCaller(req, adminID, "admin")
	req = withRouteParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()

	AdminUpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastStatus != enums.OrderStatusShipping {
		t.Fatalf("expected shipping, got %s", svc.lastStatus)
	}
	if svc.lastActor == nil || svc.lastActor.UserID != adminID || svc.lastActor.Role != "admin" {
		t.Fatalf("unexpected actor %+v", svc.lastActor)
	}
}
