package entitlements

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/subscription"
)

const paymentIntentPageLimit = 100

// StripeBillingClient exposes the subset of Stripe operations required by the
// entitlement services.
type StripeBillingClient interface {
	ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error)
	ListPaymentIntents(ctx context.Context, customerID string) ([]*stripe.PaymentIntent, error)
	GetCustomer(ctx context.Context, id string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the global Stripe client so the entitlement services can be tested.
func NewStripeClient() StripeBillingClient {
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx

	var subs []*stripe.Subscription
	iter := subscription.List(params)
	for iter.Next() {
		subs = append(subs, iter.Subscription())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

func (w *stripeClientWrapper) ListPaymentIntents(ctx context.Context, customerID string) ([]*stripe.PaymentIntent, error) {
	params := paymentIntentListParams(ctx, customerID)

	var intents []*stripe.PaymentIntent
	iter := paymentintent.List(params)
	for iter.Next() {
		intents = append(intents, iter.PaymentIntent())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return intents, nil
}

// paymentIntentListParams requests exactly one page of the customer's most
// recent payment intents. Single keeps the iterator from paginating past the
// page limit; anything older than the first 100 intents is not considered.
func paymentIntentListParams(ctx context.Context, customerID string) *stripe.PaymentIntentListParams {
	params := &stripe.PaymentIntentListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(paymentIntentPageLimit)
	params.Single = true
	params.AddExpand("data.latest_charge")
	return params
}

func (w *stripeClientWrapper) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	return customer.Get(id, params)
}

func (w *stripeClientWrapper) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	if params != nil {
		params.Context = ctx
	}
	return customer.New(params)
}
