package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kimora-storefront/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Order{}, &model.OrderItem{}))
	return db
}

func strptr(s string) *string { return &s }

func TestCreateIgnoreDuplicate(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.CreateIgnoreDuplicate(ctx, &model.Order{StripeCheckoutSessionID: "cs_1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIgnoreDuplicate(ctx, &model.Order{StripeCheckoutSessionID: "cs_1"})
	require.NoError(t, err)
	assert.False(t, created)

	order, err := repo.FindBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", order.StripeCheckoutSessionID)
}

func TestItemDedupByPriceID(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.CreateIgnoreDuplicate(ctx, &model.Order{StripeCheckoutSessionID: "cs_1"})
	require.NoError(t, err)
	order, err := repo.FindBySessionID(ctx, "cs_1")
	require.NoError(t, err)

	item := func() *model.OrderItem {
		return &model.OrderItem{
			OrderID:       order.ID,
			StripePriceID: strptr("price_1"),
			Flavor:        "lemon-yuzu",
			PurchaseType:  "onetime",
			Quantity:      1,
		}
	}

	created, err := repo.CreateItemIgnoreDuplicate(ctx, item())
	require.NoError(t, err)
	assert.True(t, created)

	// Same price id again for the same order: absorbed.
	created, err = repo.CreateItemIgnoreDuplicate(ctx, item())
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.CountItems(ctx, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestItemDedupByLineItemID(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.CreateIgnoreDuplicate(ctx, &model.Order{StripeCheckoutSessionID: "cs_1"})
	require.NoError(t, err)
	order, err := repo.FindBySessionID(ctx, "cs_1")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := repo.CreateItemIgnoreDuplicate(ctx, &model.OrderItem{
			OrderID:          order.ID,
			StripeLineItemID: strptr("li_1"),
			Flavor:           "unknown",
			PurchaseType:     "onetime",
			Quantity:         1,
		})
		require.NoError(t, err)
	}

	count, err := repo.CountItems(ctx, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSamePriceAllowedAcrossOrders(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	for _, sessionID := range []string{"cs_1", "cs_2"} {
		_, err := repo.CreateIgnoreDuplicate(ctx, &model.Order{StripeCheckoutSessionID: sessionID})
		require.NoError(t, err)
		order, err := repo.FindBySessionID(ctx, sessionID)
		require.NoError(t, err)

		created, err := repo.CreateItemIgnoreDuplicate(ctx, &model.OrderItem{
			OrderID:       order.ID,
			StripePriceID: strptr("price_1"),
			Flavor:        "lemon-yuzu",
			PurchaseType:  "onetime",
			Quantity:      1,
		})
		require.NoError(t, err)
		assert.True(t, created)
	}
}

func TestBackfillCustomerID(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.CreateIgnoreDuplicate(ctx, &model.Order{StripeCheckoutSessionID: "cs_1"})
	require.NoError(t, err)

	require.NoError(t, repo.BackfillCustomerID(ctx, "cs_1", "cus_9"))

	order, err := repo.FindBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	require.NotNil(t, order.StripeCustomerID)
	assert.Equal(t, "cus_9", *order.StripeCustomerID)
}

func TestLatestCustomerIDByEmail(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	customerID, err := repo.LatestCustomerIDByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, customerID)

	email := "buyer@example.com"
	_, err = repo.CreateIgnoreDuplicate(ctx, &model.Order{
		StripeCheckoutSessionID: "cs_no_customer",
		CustomerEmail:           &email,
	})
	require.NoError(t, err)

	// An order without a customer id resolves to "".
	customerID, err = repo.LatestCustomerIDByEmail(ctx, email)
	require.NoError(t, err)
	assert.Empty(t, customerID)
}
