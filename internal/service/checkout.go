package service

import (
	"context"
	"fmt"

	"kimora-storefront/internal/apperr"
	"kimora-storefront/internal/catalog"
	"kimora-storefront/internal/client"
	"kimora-storefront/internal/dto"
	"kimora-storefront/internal/token"
)

const maxItemQuantity = 20

type CheckoutService interface {
	// CreateSession validates the cart, resolves price ids and returns the
	// hosted checkout redirect URL. Nothing is persisted locally; the order
	// row appears only once the completion webhook lands.
	CreateSession(ctx context.Context, email string, items []*dto.CartItem) (string, error)
	GetSession(ctx context.Context, sessionID string) (*dto.SessionSummary, error)
}

type checkoutServiceImpl struct {
	stripeClient client.StripeClient
	catalog      *catalog.Catalog
	siteURL      string
}

func NewCheckoutService(stripeClient client.StripeClient, cat *catalog.Catalog, siteURL string) CheckoutService {
	return &checkoutServiceImpl{
		stripeClient: stripeClient,
		catalog:      cat,
		siteURL:      siteURL,
	}
}

// validateItems applies the cart rules in order; the first violation wins.
func validateItems(items []*dto.CartItem) error {
	if len(items) == 0 {
		return apperr.Validation("items", "no checkout items provided")
	}

	for _, it := range items {
		if it.Flavor == "" {
			return apperr.Validation("flavor", "missing flavor")
		}
		if it.Type != catalog.PurchaseOneTime && it.Type != catalog.PurchaseSubscribe {
			return apperr.Validation("type", "invalid type")
		}
		if it.Type == catalog.PurchaseSubscribe && !catalog.ValidFrequency(it.Frequency) {
			return apperr.Validation("frequency", "invalid frequency")
		}
		if it.Quantity < 1 || it.Quantity > maxItemQuantity {
			return apperr.Validation("quantity", "invalid quantity")
		}
	}

	hasSub := false
	hasOne := false
	for _, it := range items {
		hasSub = hasSub || it.Type == catalog.PurchaseSubscribe
		hasOne = hasOne || it.Type == catalog.PurchaseOneTime
	}
	if hasSub && hasOne {
		// Stripe cannot settle both in one session.
		return apperr.Validation("items", "subscription and one-time items cannot be checked out together")
	}

	return nil
}

func (s *checkoutServiceImpl) CreateSession(ctx context.Context, email string, items []*dto.CartItem) (string, error) {
	if err := validateItems(items); err != nil {
		return "", err
	}
	email = token.NormalizeEmail(email)

	mode := client.ModePayment
	if items[0].Type == catalog.PurchaseSubscribe {
		mode = client.ModeSubscription
	}

	lineItems := make([]client.SessionLineItem, len(items))
	for i, it := range items {
		priceID, err := s.catalog.PriceID(it.Flavor, it.Type, it.Frequency)
		if err != nil {
			return "", err
		}
		lineItems[i] = client.SessionLineItem{
			PriceID:  priceID,
			Quantity: int64(it.Quantity),
		}
	}

	out, err := s.stripeClient.CreateCheckoutSession(ctx, &client.CreateSessionInput{
		Mode:       mode,
		Email:      email,
		LineItems:  lineItems,
		SuccessURL: s.siteURL + "/order-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.siteURL + "/cart",
		Metadata:   map[string]string{"source": "kimora-site", "mode": mode},
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	return out.URL, nil
}

func (s *checkoutServiceImpl) GetSession(ctx context.Context, sessionID string) (*dto.SessionSummary, error) {
	info, err := s.stripeClient.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}

	return &dto.SessionSummary{
		ID:            info.ID,
		Mode:          info.Mode,
		CustomerEmail: info.CustomerEmail,
		PaymentStatus: info.PaymentStatus,
		Subscription:  info.SubscriptionID,
	}, nil
}
