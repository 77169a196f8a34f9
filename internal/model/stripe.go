package model

import (
	"bytes"
	"encoding/json"
)

// StripeEvent is the verified webhook envelope handed from the client layer
// to the reconciler. Data holds the raw event object so event payloads can be
// decoded into our own optional-field structs instead of pinning the SDK's
// versioned types.
type StripeEvent struct {
	ID   string
	Type string
	Data json.RawMessage
}

const EventCheckoutSessionCompleted = "checkout.session.completed"

// ExpandableID accepts Stripe's expandable-reference forms: a bare id string,
// an expanded object carrying an id, or null.
type ExpandableID string

func (e *ExpandableID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = ExpandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = ExpandableID(obj.ID)
	return nil
}

func (e ExpandableID) String() string { return string(e) }

// CheckoutSessionPayload is the checkout.session.completed object with every
// field optional. Webhook payloads are partially present by design, so
// nothing here may be assumed set.
type CheckoutSessionPayload struct {
	ID              string           `json:"id"`
	Mode            string           `json:"mode"` // payment | subscription | setup
	PaymentIntent   ExpandableID     `json:"payment_intent"`
	Subscription    ExpandableID     `json:"subscription"`
	Customer        ExpandableID     `json:"customer"`
	CustomerEmail   string           `json:"customer_email"`
	CustomerDetails *CustomerDetails `json:"customer_details"`
	Currency        string           `json:"currency"`
	AmountSubtotal  *int64           `json:"amount_subtotal"`
	AmountTotal     *int64           `json:"amount_total"`
	PaymentStatus   string           `json:"payment_status"`
	ShippingDetails *ShippingDetails `json:"shipping_details"`
}

type CustomerDetails struct {
	Email string `json:"email"`
}

type ShippingDetails struct {
	Name    string           `json:"name"`
	Address *ShippingAddress `json:"address"`
}

type ShippingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Email prefers the checkout-collected address over the one the session was
// created with.
func (p *CheckoutSessionPayload) Email() string {
	if p.CustomerDetails != nil && p.CustomerDetails.Email != "" {
		return p.CustomerDetails.Email
	}
	return p.CustomerEmail
}
