package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewbar/bubbletea-backend/internal/address"
	"github.com/brewbar/bubbletea-backend/internal/cart"
	"github.com/brewbar/bubbletea-backend/internal/orders"
	"github.com/brewbar/bubbletea-backend/internal/pricing"
	"github.com/brewbar/bubbletea-backend/internal/products"
	"github.com/brewbar/bubbletea-backend/internal/promotions"
	"github.com/brewbar/bubbletea-backend/internal/toppings"
	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/metrics"
	"github.com/brewbar/bubbletea-backend/pkg/outbox"
)

type fixture struct {
	svc     Service
	client  *db.Client
	reg     *prometheus.Registry
	userID  uuid.UUID
	product models.Product
	pearl   models.Topping
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})

	promos, err := promotions.NewService(promotions.NewRepository(client.DB()))
	require.NoError(t, err)
	addresses, err := address.NewService(client)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	svc, err := NewService(Deps{
		Tx:     client,
		Cart:   cart.NewRepository(client.DB()),
		Orders: orders.NewRepository(client.DB()),
		Catalog: RepositoryCatalog{
			ProductRepo: products.NewRepository(client.DB()),
			ToppingRepo: toppings.NewRepository(client.DB()),
		},
		Promotions: promos,
		Addresses:  addresses,
		Outbox:     outbox.NewService(outbox.NewRepository(client.DB()), logg),
		Shipping:   pricing.ShippingRule{Fee: 25000, FreeThreshold: 200000},
		Metrics:    checkoutMetrics,
		Logger:     logg,
	})
	require.NoError(t, err)

	product := models.Product{Name: "Trà sữa", CategoryID: uuid.New(), BasePrice: 35000, Slug: "tra-sua", IsAvailable: true}
	require.NoError(t, client.DB().Create(&product).Error)
	require.NoError(t, client.DB().Create(&models.ProductOption{ProductID: product.ID, OptionGroup: pricing.SizeGroup, OptionValue: "L", PriceAdjustment: 5000}).Error)
	pearl := models.Topping{Name: "Trân châu đen", Price: 5000, IsAvailable: true}
	require.NoError(t, client.DB().Create(&pearl).Error)

	return &fixture{svc: svc, client: client, reg: reg, userID: uuid.New(), product: product, pearl: pearl}
}

func (f *fixture) addToCart(t *testing.T, qty int, size string, pearls int) {
	t.Helper()
	item := models.CartItem{
		UserID:          f.userID,
		ProductID:       f.product.ID,
		Quantity:        qty,
		SelectedOptions: models.SelectedOptions{Size: &size},
	}
	if pearls > 0 {
		item.SelectedToppings = []models.SelectedTopping{{ToppingID: f.pearl.ID, Quantity: pearls}}
	}
	require.NoError(t, f.client.DB().Create(&item).Error)
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.client.DB().Model(model).Count(&n).Error)
	return n
}

func (f *fixture) outcome(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "brewbar_checkout_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func codInput() Input {
	return Input{ShippingAddress: " 12 Nguyễn Huệ, Quận 1 ", PaymentMethod: enums.PaymentMethodCOD}
}

func TestPlaceOrderFreezesPricesAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// size L (40000) + two pearls (10000) = 50000
	f.addToCart(t, 1, "L", 2)

	res, err := f.svc.PlaceOrder(ctx, f.userID, codInput())
	require.NoError(t, err)

	order := res.Order
	assert.Equal(t, int64(50000), order.TotalAmount)
	assert.Equal(t, int64(25000), order.ShippingFee)
	assert.Equal(t, int64(0), order.DiscountAmount)
	assert.Equal(t, int64(75000), order.FinalAmount)
	assert.Equal(t, "12 Nguyễn Huệ, Quận 1", order.ShippingAddress)
	assert.Equal(t, enums.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.False(t, res.PromotionApplied)

	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(40000), order.Items[0].PriceAtPurchase)
	assert.Equal(t, int64(50000), order.Items[0].Subtotal)
	require.Len(t, order.Items[0].Toppings, 1)
	assert.Equal(t, int64(10000), order.Items[0].Toppings[0].Subtotal)

	assert.Zero(t, f.count(t, &models.CartItem{}))
	assert.Equal(t, int64(1), f.count(t, &models.OutboxEvent{}))
	assert.Equal(t, float64(1), f.outcome(t, metrics.CheckoutPlaced))

	// later catalog edits leave the stored order untouched
	require.NoError(t, f.client.DB().Model(&models.Product{}).Where("id = ?", f.product.ID).Update("base_price", 99000).Error)
	var stored models.OrderItem
	require.NoError(t, f.client.DB().Where("order_id = ?", order.ID).First(&stored).Error)
	assert.Equal(t, int64(40000), stored.PriceAtPurchase)
	assert.Equal(t, int64(50000), stored.Subtotal)
}

func TestPlaceOrderFreeShippingAtThreshold(t *testing.T) {
	f := newFixture(t)
	// 4 × (40000 + 10000) = 200000
	f.addToCart(t, 4, "L", 2)

	res, err := f.svc.PlaceOrder(context.Background(), f.userID, codInput())
	require.NoError(t, err)
	assert.Equal(t, int64(200000), res.Order.TotalAmount)
	assert.Zero(t, res.Order.ShippingFee)
	assert.Equal(t, int64(200000), res.Order.FinalAmount)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, codInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OutboxEvent{}))
	assert.Equal(t, float64(1), f.outcome(t, metrics.CheckoutRejected))
}

func TestPlaceOrderEmptyCartWinsOverBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, Input{ShippingAddress: " ", PaymentMethod: "cash"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "cart empty")
	assert.NotContains(t, err.Error(), "shipping address")
}

func TestPlaceOrderRejectsUnavailableProduct(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, 1, "L", 0)
	require.NoError(t, f.client.DB().Model(&models.Product{}).Where("id = ?", f.product.ID).Update("is_available", false).Error)

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, codInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "Trà sữa")
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OrderItem{}))
	assert.Equal(t, int64(1), f.count(t, &models.CartItem{}))
}

func TestSoldOutCartLineFailsOnlyAtCheckout(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.client.DB().Model(&models.Product{}).Where("id = ?", f.product.ID).Update("is_available", false).Error)

	carts, err := cart.NewService(cart.NewRepository(f.client.DB()), f.client,
		products.NewRepository(f.client.DB()), toppings.NewRepository(f.client.DB()))
	require.NoError(t, err)
	_, err = carts.AddItem(context.Background(), f.userID, cart.AddItemInput{ProductID: f.product.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(context.Background(), f.userID, codInput())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "unavailable")
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestPlaceOrderValidatesInput(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, 1, "L", 0)

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, Input{ShippingAddress: "  ", PaymentMethod: enums.PaymentMethodCOD})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.PlaceOrder(context.Background(), f.userID, Input{ShippingAddress: "x", PaymentMethod: "cash"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing := uuid.New()
	_, err = f.svc.PlaceOrder(context.Background(), f.userID, Input{AddressID: &missing, PaymentMethod: enums.PaymentMethodCOD})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestPlaceOrderUsesSavedAddress(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, 1, "L", 0)
	ward := "Phường Bến Nghé"
	addr := models.Address{UserID: f.userID, RecipientName: "Lan", PhoneNumber: "0901234567", StreetAddress: "12 Nguyễn Huệ", Ward: &ward, District: "Quận 1", City: "TP.HCM", IsDefault: true}
	require.NoError(t, f.client.DB().Create(&addr).Error)

	res, err := f.svc.PlaceOrder(context.Background(), f.userID, Input{AddressID: &addr.ID, PaymentMethod: enums.PaymentMethodMomo})
	require.NoError(t, err)
	assert.Equal(t, "12 Nguyễn Huệ, Phường Bến Nghé, Quận 1, TP.HCM", res.Order.ShippingAddress)
	require.NotNil(t, res.Order.CustomerName)
	assert.Equal(t, "Lan", *res.Order.CustomerName)
}

func TestPlaceOrderAppliesPromotion(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	active := models.Promotion{
		Code: "GIAM10", Description: "10%", DiscountType: enums.DiscountTypePercentage, DiscountValue: 10,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), IsActive: true,
	}
	expired := models.Promotion{
		Code: "HETHAN", Description: "old", DiscountType: enums.DiscountTypeFixedAmount, DiscountValue: 20000,
		StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-24 * time.Hour), IsActive: true,
	}
	require.NoError(t, f.client.DB().Create(&active).Error)
	require.NoError(t, f.client.DB().Create(&expired).Error)

	f.addToCart(t, 1, "L", 2)
	code := "hethan"
	res, err := f.svc.PlaceOrder(context.Background(), f.userID, Input{ShippingAddress: "x", PaymentMethod: enums.PaymentMethodCOD, PromotionCode: &code})
	require.NoError(t, err)
	assert.False(t, res.PromotionApplied)
	assert.Zero(t, res.Order.DiscountAmount)
	assert.Nil(t, res.Order.PromotionID)

	f.addToCart(t, 1, "L", 2)
	code = "giam10"
	res, err = f.svc.PlaceOrder(context.Background(), f.userID, Input{ShippingAddress: "x", PaymentMethod: enums.PaymentMethodCOD, PromotionCode: &code})
	require.NoError(t, err)
	assert.True(t, res.PromotionApplied)
	assert.Equal(t, int64(5000), res.Order.DiscountAmount)
	assert.Equal(t, res.Order.TotalAmount+res.Order.ShippingFee-res.Order.DiscountAmount, res.Order.FinalAmount)
	require.NotNil(t, res.Order.PromotionID)
	assert.Equal(t, active.ID, *res.Order.PromotionID)
}
