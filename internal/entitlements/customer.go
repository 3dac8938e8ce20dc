package entitlements

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/entitle-backend/internal/accounts"
	"github.com/angelmondragon/entitle-backend/pkg/db/models"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
	"github.com/angelmondragon/entitle-backend/pkg/metrics"
	"github.com/stripe/stripe-go/v84"
)

const metadataAccountIDKey = "account_id"

// ResolverParams groups dependencies for the customer resolver.
type ResolverParams struct {
	Stripe   StripeBillingClient
	Accounts accounts.Repository
	Logger   *logger.Logger
	Metrics  *metrics.BillingMetrics
}

// Resolver maps local accounts to Stripe customer ids, self-healing stale
// links when asked to verify.
type Resolver struct {
	stripe   StripeBillingClient
	accounts accounts.Repository
	logg     *logger.Logger
	metrics  *metrics.BillingMetrics
}

// NewResolver builds a customer resolver.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Stripe == nil {
		return nil, errors.New("stripe client is required")
	}
	if params.Accounts == nil {
		return nil, errors.New("accounts repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Resolver{
		stripe:   params.Stripe,
		accounts: params.Accounts,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Resolve returns the account's Stripe customer id. Without verify the
// stored id is trusted as-is. With verify the customer is looked up; a
// missing or deleted customer clears the stored link and reports absent.
func (r *Resolver) Resolve(ctx context.Context, account *models.Account, verify bool) (string, bool, error) {
	if account == nil || account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
		return "", false, nil
	}
	customerID := *account.StripeCustomerID
	if !verify {
		return customerID, true, nil
	}

	cust, err := r.stripe.GetCustomer(ctx, customerID)
	r.metrics.IncProviderCall("customers.get", err)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return "", false, r.clearStaleLink(ctx, account, customerID)
		}
		return "", false, fmt.Errorf("verifying customer %s: %w", customerID, err)
	}
	if cust == nil || cust.Deleted {
		return "", false, r.clearStaleLink(ctx, account, customerID)
	}
	return customerID, true, nil
}

func (r *Resolver) clearStaleLink(ctx context.Context, account *models.Account, customerID string) error {
	ctx = r.logg.WithCustomerID(ctx, customerID)
	r.logg.Warn(ctx, "stored stripe customer no longer exists, clearing link")
	if err := r.accounts.UpdateStripeCustomerID(ctx, account.ID, nil); err != nil {
		return fmt.Errorf("clearing stale customer link: %w", err)
	}
	account.StripeCustomerID = nil
	return nil
}

// Create provisions a Stripe customer for the account and persists the id.
// A persistence failure surfaces so the caller retries; the provider-side
// customer may then exist without a stored link.
func (r *Resolver) Create(ctx context.Context, account *models.Account) (string, error) {
	if account == nil {
		return "", errors.New("account is required")
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(account.Email),
		Name:  stripe.String(account.Name),
	}
	params.AddMetadata(metadataAccountIDKey, account.ID.String())

	cust, err := r.stripe.CreateCustomer(ctx, params)
	r.metrics.IncProviderCall("customers.create", err)
	if err != nil {
		return "", fmt.Errorf("creating stripe customer: %w", err)
	}

	if err := r.accounts.UpdateStripeCustomerID(ctx, account.ID, &cust.ID); err != nil {
		return "", fmt.Errorf("persisting customer id %s: %w", cust.ID, err)
	}
	account.StripeCustomerID = &cust.ID
	return cust.ID, nil
}

// ResolveOrCreate returns the existing customer id or provisions one.
func (r *Resolver) ResolveOrCreate(ctx context.Context, account *models.Account) (string, error) {
	customerID, ok, err := r.Resolve(ctx, account, false)
	if err != nil {
		return "", err
	}
	if ok {
		return customerID, nil
	}
	return r.Create(ctx, account)
}
