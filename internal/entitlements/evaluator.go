package entitlements

import (
	"sort"
	"time"
)

// SelectActivePlan picks the record that grants access at now, or nil when
// nothing does. Tiers are strict: a lifetime payment always beats a
// time-boxed one, which always beats any subscription.
func SelectActivePlan(set RecordSet, now time.Time) *Entitlement {
	if ent := selectLifetimePayment(set.Payments); ent != nil {
		return ent
	}
	if ent := selectTimeBoxedPayment(set.Payments, now); ent != nil {
		return ent
	}
	return selectSubscription(set.Subscriptions)
}

func selectLifetimePayment(payments []Payment) *Entitlement {
	for _, payment := range payments {
		if payment.Refunded || !payment.Price.Lifetime {
			continue
		}
		return &Entitlement{
			Source:   SourcePayment,
			RecordID: payment.ID,
			Price:    payment.Price,
		}
	}
	return nil
}

func selectTimeBoxedPayment(payments []Payment, now time.Time) *Entitlement {
	for _, payment := range payments {
		if payment.Refunded || payment.Price.Lifetime || payment.Price.ValidityMinutes <= 0 {
			continue
		}
		expiresAt := payment.Created.Add(time.Duration(payment.Price.ValidityMinutes) * time.Minute)
		// Access lapses at the boundary itself.
		if !expiresAt.After(now) {
			continue
		}
		expiry := expiresAt
		return &Entitlement{
			Source:    SourcePayment,
			RecordID:  payment.ID,
			Price:     payment.Price,
			ExpiresAt: &expiry,
		}
	}
	return nil
}

func selectSubscription(subscriptions []Subscription) *Entitlement {
	if len(subscriptions) == 0 {
		return nil
	}
	ordered := make([]Subscription, len(subscriptions))
	copy(ordered, subscriptions)
	// Stable so provider ordering breaks ties within each group.
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].Paused && ordered[j].Paused
	})
	chosen := ordered[0]
	return &Entitlement{
		Source:   SourceSubscription,
		RecordID: chosen.ID,
		Price:    chosen.Price,
	}
}
