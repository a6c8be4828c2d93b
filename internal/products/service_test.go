package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewbar/bubbletea-backend/internal/categories"
	"github.com/brewbar/bubbletea-backend/internal/toppings"
	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/pagination"
)

type fixture struct {
	client   *db.Client
	svc      Service
	category *models.Category
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	categorySvc, err := categories.NewService(categories.NewRepository(client.DB()), client)
	require.NoError(t, err)
	category, err := categorySvc.Create(context.Background(), categories.CategoryInput{Name: "Trà sữa"})
	require.NoError(t, err)

	svc, err := NewService(NewRepository(client.DB()), client, categorySvc, toppings.NewRepository(client.DB()))
	require.NoError(t, err)
	return fixture{client: client, svc: svc, category: category}
}

func (f fixture) input(name string) ProductInput {
	return ProductInput{
		Name:       name,
		CategoryID: f.category.ID,
		BasePrice:  35000,
		Options: []OptionInput{
			{OptionGroup: "size", OptionValue: "M", IsDefault: true},
			{OptionGroup: "size", OptionValue: "L", PriceAdjustment: 5000},
			{OptionGroup: "ice", OptionValue: "Ít đá"},
		},
	}
}

func TestCreateAndDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product, err := f.svc.Create(ctx, f.input("Trà Sữa Trân Châu Đường Đen"))
	require.NoError(t, err)
	assert.Equal(t, "tra-sua-tran-chau-duong-den", product.Slug)
	assert.True(t, product.IsAvailable)

	pearl := models.Topping{Name: "Trân châu đen", Price: 5000, IsAvailable: true}
	hidden := models.Topping{Name: "Pudding", Price: 8000}
	require.NoError(t, f.client.DB().Create(&pearl).Error)
	require.NoError(t, f.client.DB().Create(&hidden).Error)
	require.NoError(t, f.client.DB().Model(&models.Topping{}).Where("id = ?", hidden.ID).Update("is_available", false).Error)
	for _, tp := range []models.Topping{pearl, hidden} {
		require.NoError(t, f.client.DB().Create(&models.ProductTopping{ProductID: product.ID, ToppingID: tp.ID}).Error)
	}
	reviews := []models.Review{
		{ProductID: product.ID, UserID: uuid.New(), Rating: 5, IsApproved: true},
		{ProductID: product.ID, UserID: uuid.New(), Rating: 4, IsApproved: true},
		{ProductID: product.ID, UserID: uuid.New(), Rating: 1},
	}
	require.NoError(t, f.client.DB().Create(&reviews).Error)

	detail, err := f.svc.GetBySlug(ctx, product.Slug)
	require.NoError(t, err)
	assert.Len(t, detail.OptionGroups["size"], 2)
	assert.Len(t, detail.OptionGroups["ice"], 1)
	require.Len(t, detail.Toppings, 1)
	assert.Equal(t, "Trân châu đen", detail.Toppings[0].Name)
	assert.Equal(t, 2, detail.ReviewCount)
	assert.InDelta(t, 4.5, detail.AverageRating, 0.001)
	require.NotNil(t, detail.Category)
	assert.Equal(t, f.category.ID, detail.Category.ID)

	_, err = f.svc.GetBySlug(ctx, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)
	in := f.input("Trà đào")
	in.CategoryID = uuid.New()
	_, err := f.svc.Create(context.Background(), in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateReplacesOptionsAndSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product, err := f.svc.Create(ctx, f.input("Trà đào"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.input("Trà vải"))
	require.NoError(t, err)

	in := f.input("Trà vải")
	in.Options = []OptionInput{{OptionGroup: "size", OptionValue: "XL", PriceAdjustment: 10000}}
	updated, err := f.svc.Update(ctx, product.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "tra-vai-2", updated.Slug)

	var options []models.ProductOption
	require.NoError(t, f.client.DB().Where("product_id = ?", product.ID).Find(&options).Error)
	require.Len(t, options, 1)
	assert.Equal(t, "XL", options[0].OptionValue)

	in.Options = nil
	in.BasePrice = 42000
	_, err = f.svc.Update(ctx, product.ID, in)
	require.NoError(t, err)
	require.NoError(t, f.client.DB().Where("product_id = ?", product.ID).Find(&options).Error)
	assert.Len(t, options, 1, "nil options keep the existing rows")
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product, err := f.svc.Create(ctx, f.input("Matcha latte"))
	require.NoError(t, err)
	topping := models.Topping{Name: "Kem cheese", Price: 10000, IsAvailable: true}
	require.NoError(t, f.client.DB().Create(&topping).Error)
	require.NoError(t, f.client.DB().Create(&models.ProductTopping{ProductID: product.ID, ToppingID: topping.ID}).Error)
	require.NoError(t, f.client.DB().Create(&models.WishlistItem{ProductID: product.ID, UserID: uuid.New()}).Error)

	require.NoError(t, f.svc.Delete(ctx, product.ID))

	for _, model := range []any{&models.ProductOption{}, &models.ProductTopping{}, &models.WishlistItem{}, &models.Product{}} {
		var count int64
		require.NoError(t, f.client.DB().Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}
	err = f.svc.Delete(ctx, product.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestStorefrontListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, name := range []string{"Trà sữa Thái", "Trà sữa Ô long", "Hồng trà", "Sữa tươi", "Trà chanh"} {
		p := models.Product{
			Name:        name,
			CategoryID:  f.category.ID,
			BasePrice:   30000,
			Slug:        "p-" + uuid.NewString(),
			IsAvailable: i != 4,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, f.client.DB().Create(&p).Error)
		ids = append(ids, p.ID)
	}

	found, err := f.svc.Search(ctx, "TRÀ SỮA")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	empty, err := f.svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	featured, err := f.svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 4)
	assert.Equal(t, ids[3], featured[0].ID, "newest available first")

	related, err := f.svc.Related(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, related, 3)
	for _, p := range related {
		assert.NotEqual(t, ids[0], p.ID)
	}

	listing, err := f.svc.ListByCategorySlug(ctx, f.category.Slug)
	require.NoError(t, err)
	assert.Len(t, listing.Products, 4)

	page, err := f.svc.AdminList(ctx, pagination.Params{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	require.NotEmpty(t, page.NextCursor)
	next, err := f.svc.AdminList(ctx, pagination.Params{Limit: 3, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, next.Items, 2)
	assert.Empty(t, next.NextCursor)

	_, err = f.svc.AdminList(ctx, pagination.Params{Cursor: "!!"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
