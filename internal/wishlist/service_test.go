package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

func TestWishlistLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	userID := uuid.New()

	product := models.Product{Name: "Trà sữa", CategoryID: uuid.New(), BasePrice: 35000, Slug: "tra-sua", IsAvailable: true}
	gone := models.Product{Name: "Sinh tố bơ", CategoryID: uuid.New(), BasePrice: 45000, Slug: "sinh-to-bo", IsAvailable: true}
	for _, p := range []*models.Product{&product, &gone} {
		if err := client.DB().Create(p).Error; err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}

	if err := svc.Add(ctx, userID, product.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Add(ctx, userID, gone.ID); err != nil {
		t.Fatalf("add second: %v", err)
	}
	if err := svc.Add(ctx, userID, product.ID); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict on duplicate, got %v", err)
	}
	if err := svc.Add(ctx, userID, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}

	if err := client.DB().Where("id = ?", gone.ID).Delete(&models.Product{}).Error; err != nil {
		t.Fatalf("delete product: %v", err)
	}
	items, err := svc.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Product.ID != product.ID {
		t.Fatalf("expected only the surviving product, got %+v", items)
	}

	ok, err := svc.Contains(ctx, userID, product.ID)
	if err != nil || !ok {
		t.Fatalf("expected contains true, got %v %v", ok, err)
	}
	if err := svc.Remove(ctx, userID, product.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Remove(ctx, userID, product.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}
