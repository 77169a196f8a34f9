package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"kimora-storefront/internal/apperr"
)

const (
	PurchaseOneTime   = "onetime"
	PurchaseSubscribe = "subscribe"
)

// Flavors is the fixed product lineup. Price ids for new flavors are picked
// up automatically once the slug is added here and the env vars exist.
var Flavors = []string{
	"strawberry-guava",
	"lemon-yuzu",
	"raspberry-dragonfruit",
}

// Frequencies are the supported subscription intervals, in weeks.
var Frequencies = []string{"2", "4", "6"}

// Product is the reverse-mapping result for one Stripe price id.
type Product struct {
	Flavor         string
	PurchaseType   string
	FrequencyWeeks int // 0 for one-time purchases
}

// Unknown is returned for price ids the catalog does not know. Reconciliation
// records the line with this marker instead of failing, since the payment has
// already settled.
var Unknown = Product{Flavor: "unknown", PurchaseType: PurchaseOneTime}

type catalogKey struct {
	flavor       string
	purchaseType string
	frequency    string
}

// Catalog is the immutable price-id mapping, built once at startup.
type Catalog struct {
	priceIDs map[catalogKey]string
	products map[string]Product
}

var envKeyPattern = regexp.MustCompile(`[^A-Z0-9]+`)

func envKey(slug string) string {
	return envKeyPattern.ReplaceAllString(strings.ToUpper(strings.TrimSpace(slug)), "_")
}

// EnvName returns the environment variable holding the price id for one
// catalog combination, e.g. STRIPE_PRICE_LEMON_YUZU_SUB_4W.
func EnvName(flavor, purchaseType, frequency string) string {
	if purchaseType == PurchaseOneTime {
		return fmt.Sprintf("STRIPE_PRICE_%s_ONETIME", envKey(flavor))
	}
	return fmt.Sprintf("STRIPE_PRICE_%s_SUB_%sW", envKey(flavor), frequency)
}

// Load builds the catalog from the given environment lookup (os.Getenv in
// production). Missing entries are tolerated here and surface as
// configuration errors when actually requested.
func Load(getenv func(string) string) *Catalog {
	c := &Catalog{
		priceIDs: make(map[catalogKey]string),
		products: make(map[string]Product),
	}

	add := func(flavor, purchaseType, frequency string) {
		priceID := getenv(EnvName(flavor, purchaseType, frequency))
		if priceID == "" {
			return
		}
		c.priceIDs[catalogKey{flavor, purchaseType, frequency}] = priceID

		weeks := 0
		if frequency != "" {
			weeks, _ = strconv.Atoi(frequency)
		}
		c.products[priceID] = Product{
			Flavor:         flavor,
			PurchaseType:   purchaseType,
			FrequencyWeeks: weeks,
		}
	}

	for _, flavor := range Flavors {
		add(flavor, PurchaseOneTime, "")
		for _, frequency := range Frequencies {
			add(flavor, PurchaseSubscribe, frequency)
		}
	}

	return c
}

// PriceID resolves a cart combination to its Stripe price id. A miss is a
// deployment defect, not a user error.
func (c *Catalog) PriceID(flavor, purchaseType, frequency string) (string, error) {
	if purchaseType == PurchaseOneTime {
		frequency = ""
	}
	priceID, ok := c.priceIDs[catalogKey{flavor, purchaseType, frequency}]
	if !ok {
		return "", apperr.Configuration("missing env var: " + EnvName(flavor, purchaseType, frequency))
	}
	return priceID, nil
}

// ProductFor is the inverse mapping used during reconciliation. It never
// fails; unmapped price ids come back as Unknown.
func (c *Catalog) ProductFor(priceID string) Product {
	if p, ok := c.products[priceID]; ok {
		return p
	}
	return Unknown
}

// ValidFrequency reports whether the given interval is one we sell.
func ValidFrequency(frequency string) bool {
	for _, f := range Frequencies {
		if f == frequency {
			return true
		}
	}
	return false
}
