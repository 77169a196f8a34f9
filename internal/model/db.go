package model

import "time"

// Order is one completed checkout transaction. Rows are only ever created by
// webhook reconciliation, never at session-creation time, so abandoned carts
// leave nothing behind.
type Order struct {
	ID uint `gorm:"primaryKey"`

	// Natural idempotency key: Stripe assigns exactly one of these per
	// checkout attempt. The unique index is what makes concurrent
	// redeliveries race safely to a single row.
	StripeCheckoutSessionID string `gorm:"size:255;uniqueIndex;not null"`

	StripePaymentIntentID *string `gorm:"size:255;index"`
	StripeSubscriptionID  *string `gorm:"size:255;index"`
	StripeCustomerID      *string `gorm:"size:255"`

	CustomerEmail *string `gorm:"size:255;index"`

	Currency       string `gorm:"size:8;not null;default:usd"`
	AmountSubtotal *int64
	AmountTotal    *int64

	IsSubscription bool   `gorm:"not null;default:false"`
	Status         string `gorm:"size:32;not null;default:paid"`

	ShippingName *string `gorm:"size:255"`
	// Serialized JSON address as delivered by Stripe.
	ShippingAddress *string

	CreatedAt time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is one purchased line within an Order. Either unique key alone is
// enough to absorb a re-delivered line; both exist because Stripe does not
// always include a line-item id.
type OrderItem struct {
	ID      uint `gorm:"primaryKey"`
	OrderID uint `gorm:"not null;index;uniqueIndex:uniq_order_item_price,priority:1;uniqueIndex:uniq_order_item_line,priority:1"`

	StripePriceID    *string `gorm:"size:255;uniqueIndex:uniq_order_item_price,priority:2"`
	StripeLineItemID *string `gorm:"size:255;uniqueIndex:uniq_order_item_line,priority:2"`

	Flavor         string `gorm:"size:64;not null"`
	PurchaseType   string `gorm:"size:16;not null"` // onetime | subscribe
	FrequencyWeeks *int
	Quantity       int `gorm:"not null;default:1"`
	UnitAmount     *int64

	CreatedAt time.Time
}
