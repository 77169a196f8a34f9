package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kimora-storefront/internal/apperr"
	"kimora-storefront/internal/catalog"
	"kimora-storefront/internal/client"
	"kimora-storefront/internal/dto"
)

func testCatalog() *catalog.Catalog {
	vars := map[string]string{
		"STRIPE_PRICE_STRAWBERRY_GUAVA_ONETIME": "price_sg_once",
		"STRIPE_PRICE_LEMON_YUZU_ONETIME":       "price_ly_once",
		"STRIPE_PRICE_LEMON_YUZU_SUB_4W":        "price_ly_4w",
	}
	return catalog.Load(func(name string) string { return vars[name] })
}

func TestCreateSessionValidation(t *testing.T) {
	tests := []struct {
		name  string
		items []*dto.CartItem
		field string
	}{
		{
			name:  "empty cart",
			items: nil,
			field: "items",
		},
		{
			name:  "missing flavor",
			items: []*dto.CartItem{{Type: "onetime", Quantity: 1}},
			field: "flavor",
		},
		{
			name:  "invalid type",
			items: []*dto.CartItem{{Flavor: "lemon-yuzu", Type: "rent", Quantity: 1}},
			field: "type",
		},
		{
			name:  "missing frequency for subscription",
			items: []*dto.CartItem{{Flavor: "lemon-yuzu", Type: "subscribe", Quantity: 1}},
			field: "frequency",
		},
		{
			name:  "unsupported frequency",
			items: []*dto.CartItem{{Flavor: "lemon-yuzu", Type: "subscribe", Frequency: "3", Quantity: 1}},
			field: "frequency",
		},
		{
			name:  "quantity below range",
			items: []*dto.CartItem{{Flavor: "lemon-yuzu", Type: "onetime", Quantity: 0}},
			field: "quantity",
		},
		{
			name:  "quantity above range",
			items: []*dto.CartItem{{Flavor: "lemon-yuzu", Type: "onetime", Quantity: 21}},
			field: "quantity",
		},
		{
			name: "mixed one-time and subscription",
			items: []*dto.CartItem{
				{Flavor: "lemon-yuzu", Type: "onetime", Quantity: 1},
				{Flavor: "strawberry-guava", Type: "subscribe", Frequency: "4", Quantity: 1},
			},
			field: "items",
		},
	}

	svc := NewCheckoutService(&fakeStripeClient{}, testCatalog(), "https://shop.test")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSession(context.Background(), "", tt.items)
			require.Error(t, err)

			var e *apperr.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

func TestCreateSessionSubscriptionMode(t *testing.T) {
	stripeFake := &fakeStripeClient{}
	svc := NewCheckoutService(stripeFake, testCatalog(), "https://shop.test")

	url, err := svc.CreateSession(context.Background(), "Buyer@Example.com", []*dto.CartItem{
		{Flavor: "lemon-yuzu", Type: "subscribe", Frequency: "4", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_test", url)

	in := stripeFake.createSessionIn
	require.NotNil(t, in)
	assert.Equal(t, client.ModeSubscription, in.Mode)
	assert.Equal(t, "buyer@example.com", in.Email)
	require.Len(t, in.LineItems, 1)
	assert.Equal(t, "price_ly_4w", in.LineItems[0].PriceID)
	assert.EqualValues(t, 1, in.LineItems[0].Quantity)
	assert.Equal(t, "https://shop.test/order-success?session_id={CHECKOUT_SESSION_ID}", in.SuccessURL)
	assert.Equal(t, "https://shop.test/cart", in.CancelURL)
	assert.Equal(t, "subscription", in.Metadata["mode"])
}

func TestCreateSessionPaymentMode(t *testing.T) {
	stripeFake := &fakeStripeClient{}
	svc := NewCheckoutService(stripeFake, testCatalog(), "https://shop.test")

	_, err := svc.CreateSession(context.Background(), "", []*dto.CartItem{
		{Flavor: "lemon-yuzu", Type: "onetime", Quantity: 2},
		{Flavor: "strawberry-guava", Type: "onetime", Quantity: 1},
	})
	require.NoError(t, err)

	in := stripeFake.createSessionIn
	require.NotNil(t, in)
	assert.Equal(t, client.ModePayment, in.Mode)
	assert.Len(t, in.LineItems, 2)
}

func TestCreateSessionCatalogGapIsConfigurationError(t *testing.T) {
	svc := NewCheckoutService(&fakeStripeClient{}, testCatalog(), "https://shop.test")

	// Well-formed cart, but no price id configured for this combination.
	_, err := svc.CreateSession(context.Background(), "", []*dto.CartItem{
		{Flavor: "raspberry-dragonfruit", Type: "onetime", Quantity: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestGetSession(t *testing.T) {
	stripeFake := &fakeStripeClient{
		sessionInfo: &client.CheckoutSessionInfo{
			ID:             "cs_1",
			Mode:           "subscription",
			CustomerEmail:  "buyer@example.com",
			PaymentStatus:  "paid",
			SubscriptionID: "sub_1",
		},
	}
	svc := NewCheckoutService(stripeFake, testCatalog(), "https://shop.test")

	summary, err := svc.GetSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "subscription", summary.Mode)
	assert.Equal(t, "buyer@example.com", summary.CustomerEmail)
	assert.Equal(t, "sub_1", summary.Subscription)
}
