package toppings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

func TestToppingLinks(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)
	ctx := context.Background()

	product := models.Product{Name: "Trà sữa", CategoryID: uuid.New(), BasePrice: 35000, Slug: "tra-sua", IsAvailable: true}
	require.NoError(t, client.DB().Create(&product).Error)

	pearl, err := svc.Create(ctx, ToppingInput{Name: "Trân châu đen", Price: 5000})
	require.NoError(t, err)
	assert.True(t, pearl.IsAvailable)

	require.NoError(t, svc.LinkToProduct(ctx, product.ID, pearl.ID))
	err = svc.LinkToProduct(ctx, product.ID, pearl.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	err = svc.LinkToProduct(ctx, uuid.New(), pearl.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = svc.LinkToProduct(ctx, product.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	linked, err := svc.ListForProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, pearl.ID, linked[0].ID)

	require.NoError(t, svc.UnlinkFromProduct(ctx, product.ID, pearl.ID))
	err = svc.UnlinkFromProduct(ctx, product.ID, pearl.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteRemovesLinks(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)
	ctx := context.Background()

	product := models.Product{Name: "Trà đào", CategoryID: uuid.New(), BasePrice: 40000, Slug: "tra-dao", IsAvailable: true}
	require.NoError(t, client.DB().Create(&product).Error)
	jelly, err := svc.Create(ctx, ToppingInput{Name: "Thạch dừa", Price: 7000})
	require.NoError(t, err)
	require.NoError(t, svc.LinkToProduct(ctx, product.ID, jelly.ID))

	require.NoError(t, svc.Delete(ctx, jelly.ID))

	var links int64
	require.NoError(t, client.DB().Model(&models.ProductTopping{}).Count(&links).Error)
	assert.Zero(t, links)

	err = svc.Delete(ctx, jelly.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateValidatesAndPersists(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)
	ctx := context.Background()

	pudding, err := svc.Create(ctx, ToppingInput{Name: "Pudding", Price: 8000})
	require.NoError(t, err)

	_, err = svc.Update(ctx, pudding.ID, ToppingInput{Name: "Pudding", Price: -1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	off := false
	updated, err := svc.Update(ctx, pudding.ID, ToppingInput{Name: "Pudding trứng", Price: 9000, IsAvailable: &off})
	require.NoError(t, err)
	assert.Equal(t, int64(9000), updated.Price)
	assert.False(t, updated.IsAvailable)

	_, err = svc.Update(ctx, uuid.New(), ToppingInput{Name: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
