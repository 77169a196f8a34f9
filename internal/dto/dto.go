package dto

// CartItem is one entry of a checkout request.
type CartItem struct {
	Flavor    string `json:"flavor"`
	Type      string `json:"type"`      // onetime | subscribe
	Frequency string `json:"frequency"` // 2 | 4 | 6, required when type is subscribe
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	Email string      `json:"email" validate:"omitempty,email"`
	Items []*CartItem `json:"items"`
	// Single-item convenience form used by product pages.
	Item *CartItem `json:"item"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// SessionSummary is the read-only view for post-purchase UI branching.
type SessionSummary struct {
	ID            string `json:"id"`
	Mode          string `json:"mode"`
	CustomerEmail string `json:"customer_email"`
	PaymentStatus string `json:"payment_status"`
	Subscription  string `json:"subscription"`
}

type PortalRequest struct {
	Email string `json:"email"`
}

type PortalExchangeRequest struct {
	Token string `json:"token"`
}

type PortalResponse struct {
	URL string `json:"url"`
}
