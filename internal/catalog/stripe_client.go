package catalog

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/price"
)

// StripePriceClient exposes the subset of Stripe operations required by the catalog service.
type StripePriceClient interface {
	Get(ctx context.Context, id string) (*stripe.Price, error)
	ListActive(ctx context.Context) ([]*stripe.Price, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the global Stripe client so the catalog service can be tested.
func NewStripeClient() StripePriceClient {
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) Get(ctx context.Context, id string) (*stripe.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	return price.Get(id, params)
}

func (w *stripeClientWrapper) ListActive(ctx context.Context) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{
		Active: stripe.Bool(true),
	}
	params.Context = ctx

	var prices []*stripe.Price
	iter := price.List(params)
	for iter.Next() {
		prices = append(prices, iter.Price())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}
