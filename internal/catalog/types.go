package catalog

import "github.com/shopspring/decimal"

// PriceType distinguishes one-time purchases from recurring subscriptions.
type PriceType string

const (
	PriceTypeOneTime   PriceType = "one_time"
	PriceTypeRecurring PriceType = "recurring"
)

// Price is the catalog view of a Stripe price: identity, billing mode and
// the validity rules parsed from its metadata.
type Price struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Nickname        string    `json:"nickname,omitempty"`
	UnitAmount      int64     `json:"unit_amount"`
	Currency        string    `json:"currency"`
	Type            PriceType `json:"type"`
	ValidityMinutes int64     `json:"validity_minutes,omitempty"`
	Lifetime        bool      `json:"lifetime,omitempty"`
}

// IsRecurring reports whether the price bills on a subscription cycle.
func (p Price) IsRecurring() bool {
	return p.Type == PriceTypeRecurring
}

// Amount returns the unit amount in major currency units.
func (p Price) Amount() decimal.Decimal {
	return decimal.New(p.UnitAmount, -2)
}

// Catalog indexes recognized prices by slug name and by provider id.
type Catalog struct {
	byName map[string]Price
	byID   map[string]Price
	names  []string
}

// ByName returns the price registered under the slug name.
func (c *Catalog) ByName(name string) (Price, bool) {
	if c == nil {
		return Price{}, false
	}
	price, ok := c.byName[name]
	return price, ok
}

// ByID returns the price registered under the provider id.
func (c *Catalog) ByID(id string) (Price, bool) {
	if c == nil {
		return Price{}, false
	}
	price, ok := c.byID[id]
	return price, ok
}

// Names returns the slug names in registration order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len reports how many prices the catalog holds.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}
