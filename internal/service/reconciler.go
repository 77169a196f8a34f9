package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"kimora-storefront/internal/apperr"
	"kimora-storefront/internal/catalog"
	"kimora-storefront/internal/client"
	"kimora-storefront/internal/model"
	"kimora-storefront/internal/repository"
	"kimora-storefront/internal/token"
)

// WebhookService turns at-least-once Stripe deliveries into exactly-once
// order state. It holds no locks; correctness under concurrent redelivery
// comes from the store's unique keys and insert-or-ignore writes, so the
// whole flow is safe to re-run from the top with the same event.
type WebhookService interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type webhookServiceImpl struct {
	stripeClient client.StripeClient
	orderRepo    repository.OrderRepository
	catalog      *catalog.Catalog
}

func NewWebhookService(stripeClient client.StripeClient, orderRepo repository.OrderRepository, cat *catalog.Catalog) WebhookService {
	return &webhookServiceImpl{
		stripeClient: stripeClient,
		orderRepo:    orderRepo,
		catalog:      cat,
	}
}

func (s *webhookServiceImpl) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.stripeClient.VerifyWebhook(payload, sigHeader)
	if err != nil {
		return fmt.Errorf("verify webhook: %w", err)
	}

	switch event.Type {
	case model.EventCheckoutSessionCompleted:
		var session model.CheckoutSessionPayload
		if err := json.Unmarshal(event.Data, &session); err != nil {
			return apperr.Upstream("decode checkout session payload", err)
		}
		return s.reconcileCompletedSession(ctx, &session)
	}

	// Unsubscribed event types are acknowledged so Stripe stops resending.
	return nil
}

func (s *webhookServiceImpl) reconcileCompletedSession(ctx context.Context, session *model.CheckoutSessionPayload) error {
	if session.ID == "" {
		return apperr.Upstream("checkout session payload without id", nil)
	}

	customerID := s.resolveCustomerID(ctx, session)

	created, err := s.orderRepo.CreateIgnoreDuplicate(ctx, buildOrder(session, customerID))
	if err != nil {
		return fmt.Errorf("store order: %w", err)
	}

	order, err := s.orderRepo.FindBySessionID(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("load order for session %s: %w", session.ID, err)
	}

	if !created {
		log.Printf("duplicate delivery for session %s absorbed", session.ID)
		// Subscription-mode completions sometimes arrive without a customer
		// id; a later delivery may carry one we could not store the first
		// time around.
		if customerID != "" && (order.StripeCustomerID == nil || *order.StripeCustomerID == "") {
			if err := s.orderRepo.BackfillCustomerID(ctx, session.ID, customerID); err != nil {
				return fmt.Errorf("backfill customer id: %w", err)
			}
		}
	}

	return s.attachLineItems(ctx, order.ID, session.ID)
}

// resolveCustomerID prefers the session's own customer reference and falls
// back to the subscription object, which always carries one. Lookup failures
// are logged, not fatal: the order must still be recorded.
func (s *webhookServiceImpl) resolveCustomerID(ctx context.Context, session *model.CheckoutSessionPayload) string {
	if id := session.Customer.String(); id != "" {
		return id
	}

	subID := session.Subscription.String()
	if subID == "" {
		return ""
	}

	customerID, err := s.stripeClient.SubscriptionCustomerID(ctx, subID)
	if err != nil {
		log.Printf("backfill customer id via subscription %s failed: %v", subID, err)
		return ""
	}
	return customerID
}

func buildOrder(session *model.CheckoutSessionPayload, customerID string) *model.Order {
	order := &model.Order{
		StripeCheckoutSessionID: session.ID,
		StripePaymentIntentID:   optional(session.PaymentIntent.String()),
		StripeSubscriptionID:    optional(session.Subscription.String()),
		StripeCustomerID:        optional(customerID),
		CustomerEmail:           optional(token.NormalizeEmail(session.Email())),
		Currency:                "usd",
		AmountSubtotal:          session.AmountSubtotal,
		AmountTotal:             session.AmountTotal,
		IsSubscription:          session.Mode == client.ModeSubscription,
		Status:                  "paid",
	}

	if session.Currency != "" {
		order.Currency = session.Currency
	}
	if session.PaymentStatus != "" {
		order.Status = session.PaymentStatus
	}
	if sd := session.ShippingDetails; sd != nil {
		order.ShippingName = optional(sd.Name)
		if sd.Address != nil {
			if raw, err := json.Marshal(sd.Address); err == nil {
				order.ShippingAddress = optional(string(raw))
			}
		}
	}

	return order
}

// attachLineItems fetches the authoritative line-item list from Stripe (the
// event does not inline it) and inserts each one idempotently. A catalog gap
// records the line under the unknown marker instead of failing the event:
// the money has already moved, so the webhook must not be redelivered
// forever over a mapping defect.
func (s *webhookServiceImpl) attachLineItems(ctx context.Context, orderID uint, sessionID string) error {
	lineItems, err := s.stripeClient.ListLineItems(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("list line items: %w", err)
	}

	for _, li := range lineItems {
		mapped := s.catalog.ProductFor(li.PriceID)

		item := &model.OrderItem{
			OrderID:          orderID,
			StripePriceID:    optional(li.PriceID),
			StripeLineItemID: optional(li.ID),
			Flavor:           mapped.Flavor,
			PurchaseType:     mapped.PurchaseType,
			Quantity:         int(li.Quantity),
			UnitAmount:       li.UnitAmount,
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if mapped.FrequencyWeeks > 0 {
			weeks := mapped.FrequencyWeeks
			item.FrequencyWeeks = &weeks
		}

		created, err := s.orderRepo.CreateItemIgnoreDuplicate(ctx, item)
		if err != nil {
			return fmt.Errorf("store line item %s: %w", li.ID, err)
		}
		if !created {
			log.Printf("duplicate line item %s for session %s absorbed", li.ID, sessionID)
		}
	}

	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
