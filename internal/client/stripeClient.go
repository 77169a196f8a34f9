package client

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	"kimora-storefront/internal/apperr"
	"kimora-storefront/internal/config"
	"kimora-storefront/internal/model"
)

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

type SessionLineItem struct {
	PriceID  string
	Quantity int64
}

type CreateSessionInput struct {
	Mode       string // payment | subscription
	Email      string
	LineItems  []SessionLineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CreateSessionOutput struct {
	SessionID string
	URL       string
}

type CheckoutSessionInfo struct {
	ID             string
	Mode           string
	CustomerEmail  string
	PaymentStatus  string
	SubscriptionID string
}

type LineItem struct {
	ID         string
	PriceID    string
	Quantity   int64
	UnitAmount *int64
}

// StripeClient wraps every Stripe API surface this service touches so the
// services can be exercised against fakes.
type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, in *CreateSessionInput) (*CreateSessionOutput, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionInfo, error)
	ListLineItems(ctx context.Context, sessionID string) ([]*LineItem, error)
	SubscriptionCustomerID(ctx context.Context, subscriptionID string) (string, error)
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	VerifyWebhook(payload []byte, sigHeader string) (*model.StripeEvent, error)
}

type stripeClientImpl struct {
	webhookSecret string
}

func NewStripeClient(cfg *config.Stripe) StripeClient {
	stripe.Key = cfg.SecretKey
	return &stripeClientImpl{
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, in *CreateSessionInput) (*CreateSessionOutput, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(in.Mode),
		SuccessURL:               stripe.String(in.SuccessURL),
		CancelURL:                stripe.String(in.CancelURL),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"US"}),
		},
		Metadata: in.Metadata,
	}
	params.Context = ctx

	for _, li := range in.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(li.PriceID),
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	// Prefill email so the customer does not type it twice.
	if in.Email != "" {
		params.CustomerEmail = stripe.String(in.Email)
	}

	if in.Mode == ModePayment {
		// One-time payments do not create a customer by default; we need
		// one for the billing portal later.
		params.CustomerCreation = stripe.String(string(stripe.CheckoutSessionCustomerCreationAlways))
		if in.Email != "" {
			params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
				ReceiptEmail: stripe.String(in.Email),
			}
		}
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, apperr.Upstream("stripe create checkout session", err)
	}
	if sess.URL == "" {
		return nil, apperr.Upstream("stripe session created without redirect url", nil)
	}

	return &CreateSessionOutput{SessionID: sess.ID, URL: sess.URL}, nil
}

func (c *stripeClientImpl) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionInfo, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return nil, apperr.Upstream(fmt.Sprintf("stripe get checkout session %s", sessionID), err)
	}

	info := &CheckoutSessionInfo{
		ID:            sess.ID,
		Mode:          string(sess.Mode),
		CustomerEmail: sess.CustomerEmail,
		PaymentStatus: string(sess.PaymentStatus),
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		info.CustomerEmail = sess.CustomerDetails.Email
	}
	if sess.Subscription != nil {
		info.SubscriptionID = sess.Subscription.ID
	}
	return info, nil
}

func (c *stripeClientImpl) ListLineItems(ctx context.Context, sessionID string) ([]*LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var items []*LineItem
	iter := checkoutsession.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		item := &LineItem{
			ID:       li.ID,
			Quantity: li.Quantity,
		}
		if li.Price != nil {
			item.PriceID = li.Price.ID
			item.UnitAmount = stripe.Int64(li.Price.UnitAmount)
		}
		items = append(items, item)
	}
	if err := iter.Err(); err != nil {
		return nil, apperr.Upstream(fmt.Sprintf("stripe list line items for %s", sessionID), err)
	}

	return items, nil
}

func (c *stripeClientImpl) SubscriptionCustomerID(ctx context.Context, subscriptionID string) (string, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return "", apperr.Upstream(fmt.Sprintf("stripe get subscription %s", subscriptionID), err)
	}
	if sub.Customer == nil {
		return "", nil
	}
	return sub.Customer.ID, nil
}

func (c *stripeClientImpl) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return "", apperr.Upstream("stripe create billing portal session", err)
	}
	return sess.URL, nil
}

// VerifyWebhook checks the Stripe-Signature header against the byte-exact
// raw payload. The event body stays raw JSON for the reconciler to decode.
func (c *stripeClientImpl) VerifyWebhook(payload []byte, sigHeader string) (*model.StripeEvent, error) {
	if c.webhookSecret == "" {
		return nil, apperr.Configuration("missing STRIPE_WEBHOOK_SECRET")
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindAuthentication, Msg: "webhook signature verification failed", Err: err}
	}

	return &model.StripeEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Data: event.Data.Raw,
	}, nil
}
