package entitlements

import (
	"time"

	"github.com/angelmondragon/entitle-backend/internal/catalog"
)

// Source identifies which record kind granted an entitlement.
type Source string

const (
	SourcePayment      Source = "payment"
	SourceSubscription Source = "subscription"
)

// Subscription is the composite of a provider subscription and the catalog
// price it resolved to. Built once at fetch time; never mutated after.
type Subscription struct {
	ID      string        `json:"id"`
	Price   catalog.Price `json:"price"`
	Paused  bool          `json:"paused"`
	Created time.Time     `json:"created"`
}

// Payment is the composite of a provider payment intent and its catalog price.
type Payment struct {
	ID       string        `json:"id"`
	Price    catalog.Price `json:"price"`
	Created  time.Time     `json:"created"`
	Refunded bool          `json:"refunded"`
}

// RecordSet holds every recognized billing record for one customer. This is
// the unit cached between refreshes.
type RecordSet struct {
	Subscriptions []Subscription `json:"subscriptions"`
	Payments      []Payment      `json:"payments"`
}

// IsEmpty reports whether the set holds no records at all.
func (r RecordSet) IsEmpty() bool {
	return len(r.Subscriptions) == 0 && len(r.Payments) == 0
}

// Entitlement is the resolved outcome: which record currently grants access.
type Entitlement struct {
	Source    Source        `json:"source"`
	RecordID  string        `json:"record_id"`
	Price     catalog.Price `json:"price"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}
