package entitlements

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/entitle-backend/internal/catalog"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
	"github.com/angelmondragon/entitle-backend/pkg/metrics"
	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	metadataPriceIDKey = "price_id"
	metadataTypeKey    = "type"
	metadataTypeValue  = "payment"
)

// FetcherParams groups dependencies for the record fetcher.
type FetcherParams struct {
	Stripe  StripeBillingClient
	Logger  *logger.Logger
	Metrics *metrics.BillingMetrics
}

// Fetcher pulls a customer's billing records from Stripe and resolves them
// against the recognized catalog.
type Fetcher struct {
	stripe  StripeBillingClient
	logg    *logger.Logger
	metrics *metrics.BillingMetrics
}

// NewFetcher builds a record fetcher.
func NewFetcher(params FetcherParams) (*Fetcher, error) {
	if params.Stripe == nil {
		return nil, errors.New("stripe client is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Fetcher{
		stripe:  params.Stripe,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// FetchSubscriptions returns the customer's subscriptions whose price is in
// the catalog, as immutable composites with the resolved price.
func (f *Fetcher) FetchSubscriptions(ctx context.Context, customerID string, cat *catalog.Catalog) ([]Subscription, error) {
	raw, err := f.stripe.ListSubscriptions(ctx, customerID)
	f.metrics.IncProviderCall("subscriptions.list", err)
	if err != nil {
		return nil, err
	}

	var subs []Subscription
	for _, sub := range raw {
		price, ok := resolveSubscriptionPrice(sub, cat)
		if !ok {
			continue
		}
		subs = append(subs, Subscription{
			ID:      sub.ID,
			Price:   price,
			Paused:  sub.PauseCollection != nil,
			Created: time.Unix(sub.Created, 0).UTC(),
		})
	}
	return subs, nil
}

func resolveSubscriptionPrice(sub *stripe.Subscription, cat *catalog.Catalog) (catalog.Price, bool) {
	if sub == nil || sub.Items == nil {
		return catalog.Price{}, false
	}
	for _, item := range sub.Items.Data {
		if item == nil || item.Price == nil {
			continue
		}
		if price, ok := cat.ByID(item.Price.ID); ok {
			return price, true
		}
	}
	return catalog.Price{}, false
}

// FetchPayments returns the customer's one-time payments that carry the
// structured checkout metadata and reference a recognized price.
func (f *Fetcher) FetchPayments(ctx context.Context, customerID string, cat *catalog.Catalog) ([]Payment, error) {
	raw, err := f.stripe.ListPaymentIntents(ctx, customerID)
	f.metrics.IncProviderCall("payment_intents.list", err)
	if err != nil {
		return nil, err
	}

	var payments []Payment
	for _, intent := range raw {
		if intent == nil || intent.Metadata[metadataTypeKey] != metadataTypeValue {
			continue
		}
		price, ok := cat.ByID(intent.Metadata[metadataPriceIDKey])
		if !ok {
			continue
		}
		payments = append(payments, Payment{
			ID:       intent.ID,
			Price:    price,
			Created:  time.Unix(intent.Created, 0).UTC(),
			Refunded: intent.LatestCharge != nil && intent.LatestCharge.Refunded,
		})
	}
	return payments, nil
}

// FetchAll runs both fetches concurrently. Any provider failure is logged and
// degrades to an empty set; a Stripe outage must read as "no entitlement",
// not an error page.
func (f *Fetcher) FetchAll(ctx context.Context, customerID string, cat *catalog.Catalog) RecordSet {
	var (
		subs     []Subscription
		payments []Payment
		subErr   error
		payErr   error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		subs, subErr = f.FetchSubscriptions(groupCtx, customerID, cat)
		return nil
	})
	group.Go(func() error {
		payments, payErr = f.FetchPayments(groupCtx, customerID, cat)
		return nil
	})
	_ = group.Wait()

	if err := multierr.Append(subErr, payErr); err != nil {
		ctx = f.logg.WithCustomerID(ctx, customerID)
		f.logg.Error(ctx, "billing record fetch failed, treating as empty", err)
		return RecordSet{}
	}

	return RecordSet{Subscriptions: subs, Payments: payments}
}
