package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

type mockProducts struct{ mock.Mock }

func (m *mockProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]models.Product), args.Error(1)
}

type mockToppings struct{ mock.Mock }

func (m *mockToppings) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Topping, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]models.Topping), args.Error(1)
}

func strPtr(s string) *string { return &s }

var (
	milkTea = models.Product{
		ID:          uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Name:        "Trà sữa trân châu",
		BasePrice:   35000,
		IsAvailable: true,
		Options: []models.ProductOption{
			{OptionGroup: "size", OptionValue: "M"},
			{OptionGroup: "size", OptionValue: "L", PriceAdjustment: 5000},
		},
	}
	pearl = models.Topping{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Name: "Trân châu đen", Price: 5000, IsAvailable: true}
)

func newCartService(t *testing.T) (Service, *mockProducts, *mockToppings) {
	t.Helper()
	client := dbtest.Open(t)
	products := &mockProducts{}
	toppings := &mockToppings{}
	svc, err := NewService(NewRepository(client.DB()), client, products, toppings)
	require.NoError(t, err)
	return svc, products, toppings
}

func TestAddMergesIdenticalLinesAndViewPrices(t *testing.T) {
	svc, products, toppings := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()

	products.On("FindByIDs", mock.Anything, mock.Anything).
		Return(map[uuid.UUID]models.Product{milkTea.ID: milkTea}, nil)
	toppings.On("FindByIDs", mock.Anything, mock.Anything).
		Return(map[uuid.UUID]models.Topping{pearl.ID: pearl}, nil)

	in := AddItemInput{
		ProductID:        milkTea.ID,
		Quantity:         1,
		SelectedOptions:  models.SelectedOptions{Size: strPtr("L"), Ice: strPtr("Ít đá")},
		SelectedToppings: []models.SelectedTopping{{ToppingID: pearl.ID, Quantity: 1}, {ToppingID: pearl.ID, Quantity: 1}},
	}
	first, err := svc.AddItem(ctx, userID, in)
	require.NoError(t, err)

	in.SelectedToppings = []models.SelectedTopping{{ToppingID: pearl.ID, Quantity: 2}}
	merged, err := svc.AddItem(ctx, userID, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 2, merged.Quantity)

	in.SpecialInstructions = strPtr("ít ngọt")
	other, err := svc.AddItem(ctx, userID, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	view, err := svc.View(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	var line LineView
	for _, l := range view.Items {
		if l.ID == first.ID {
			line = l
		}
	}
	assert.Equal(t, int64(40000), line.ItemPrice)
	assert.Equal(t, int64(10000), line.ToppingsPrice)
	assert.Equal(t, int64(100000), line.TotalPrice)
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, int64(150000), view.Subtotal)
}

func TestViewDropsMissingProducts(t *testing.T) {
	svc, products, toppings := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()

	products.On("FindByIDs", mock.Anything, []uuid.UUID{milkTea.ID}).
		Return(map[uuid.UUID]models.Product{milkTea.ID: milkTea}, nil).Once()
	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: milkTea.ID, Quantity: 1})
	require.NoError(t, err)

	products.On("FindByIDs", mock.Anything, mock.Anything).Return(map[uuid.UUID]models.Product{}, nil)
	toppings.On("FindByIDs", mock.Anything, mock.Anything).Return(map[uuid.UUID]models.Topping{}, nil)

	view, err := svc.View(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Subtotal)
	products.AssertExpectations(t)
}

func TestAddAcceptsUnavailableProduct(t *testing.T) {
	svc, products, _ := newCartService(t)
	soldOut := milkTea
	soldOut.IsAvailable = false
	products.On("FindByIDs", mock.Anything, mock.Anything).
		Return(map[uuid.UUID]models.Product{soldOut.ID: soldOut}, nil)

	item, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: soldOut.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	_, err = svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: soldOut.ID, Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAddRejectsMergeOverLineLimit(t *testing.T) {
	svc, products, toppings := newCartService(t)
	ctx := context.Background()
	userID := uuid.New()

	products.On("FindByIDs", mock.Anything, mock.Anything).
		Return(map[uuid.UUID]models.Product{milkTea.ID: milkTea}, nil)
	toppings.On("FindByIDs", mock.Anything, mock.Anything).Return(map[uuid.UUID]models.Topping{}, nil)

	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: milkTea.ID, Quantity: 90})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: milkTea.ID, Quantity: 10})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	view, err := svc.View(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 90, view.Items[0].Quantity)
}

func TestUpdateRemoveAndOwnership(t *testing.T) {
	svc, products, toppings := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()

	products.On("FindByIDs", mock.Anything, mock.Anything).
		Return(map[uuid.UUID]models.Product{milkTea.ID: milkTea}, nil)
	toppings.On("FindByIDs", mock.Anything, mock.Anything).Return(map[uuid.UUID]models.Topping{}, nil)

	item, err := svc.AddItem(ctx, owner, AddItemInput{ProductID: milkTea.ID, Quantity: 1})
	require.NoError(t, err)

	err = svc.UpdateQuantity(ctx, uuid.New(), item.ID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	err = svc.RemoveItem(ctx, uuid.New(), item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, svc.UpdateQuantity(ctx, owner, item.ID, 3))
	view, err := svc.View(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)

	require.NoError(t, svc.UpdateQuantity(ctx, owner, item.ID, 0))
	view, err = svc.View(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	err = svc.RemoveItem(ctx, owner, item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, owner, AddItemInput{ProductID: milkTea.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, owner))
	view, err = svc.View(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestNormalizeToppings(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	got := NormalizeToppings([]models.SelectedTopping{
		{ToppingID: b, Quantity: 1},
		{ToppingID: a, Quantity: 2},
		{ToppingID: b, Quantity: 2},
		{ToppingID: a, Quantity: 0},
	})
	assert.Equal(t, []models.SelectedTopping{{ToppingID: a, Quantity: 2}, {ToppingID: b, Quantity: 3}}, got)
}
