package checkout

import (
	"context"
	"errors"
	"net/url"

	"github.com/angelmondragon/entitle-backend/internal/catalog"
	"github.com/angelmondragon/entitle-backend/internal/entitlements"
	"github.com/angelmondragon/entitle-backend/pkg/db/models"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
	"github.com/angelmondragon/entitle-backend/pkg/metrics"
	"github.com/stripe/stripe-go/v84"
)

// refreshParam marks the post-checkout redirect so the entitlement endpoint
// bypasses its cache once.
const refreshParam = "refresh"

// SessionMetadata is the structured metadata stamped onto checkout sessions.
// The keys must round-trip through the payment fetcher's filters.
type SessionMetadata struct {
	AccountID string
	PriceID   string
	PriceName string
	Type      string
}

func (m SessionMetadata) toMap() map[string]string {
	return map[string]string{
		"account_id": m.AccountID,
		"price_id":   m.PriceID,
		"price_name": m.PriceName,
		"type":       m.Type,
	}
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Stripe   StripeSessionClient
	Catalog  entitlements.CatalogSource
	Resolver *entitlements.Resolver
	Logger   *logger.Logger
	Metrics  *metrics.BillingMetrics

	SuccessURL          string
	CancelURL           string
	PortalConfiguration string
}

// Service builds provider-hosted checkout and portal sessions. Every failure
// mode resolves to a redirect URL; callers never render an error page.
type Service struct {
	stripe   StripeSessionClient
	catalog  entitlements.CatalogSource
	resolver *entitlements.Resolver
	logg     *logger.Logger
	metrics  *metrics.BillingMetrics

	successURL          string
	cancelURL           string
	portalConfiguration string
}

// NewService builds a checkout service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Stripe == nil {
		return nil, errors.New("stripe client is required")
	}
	if params.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if params.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.SuccessURL == "" || params.CancelURL == "" {
		return nil, errors.New("success and cancel urls are required")
	}
	return &Service{
		stripe:              params.Stripe,
		catalog:             params.Catalog,
		resolver:            params.Resolver,
		logg:                params.Logger,
		metrics:             params.Metrics,
		successURL:          params.SuccessURL,
		cancelURL:           params.CancelURL,
		portalConfiguration: params.PortalConfiguration,
	}, nil
}

// InitiatePayment returns the URL to send the browser to for purchasing the
// named price: a provider checkout session when everything lines up, the
// cancel URL otherwise.
func (s *Service) InitiatePayment(ctx context.Context, account *models.Account, priceName, next string) string {
	if account == nil {
		return s.cancelURL
	}
	ctx = s.logg.WithAccountID(ctx, account.ID.String())

	cat, err := s.catalog.Prices(ctx)
	if err != nil {
		s.logg.Error(ctx, "price catalog unavailable for checkout", err)
		return s.cancelURL
	}
	price, ok := cat.ByName(priceName)
	if !ok {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"price_name":   priceName,
			"known_prices": cat.Names(),
		}), "checkout requested for unknown price")
		return s.cancelURL
	}

	customerID, err := s.resolver.ResolveOrCreate(ctx, account)
	if err != nil {
		s.logg.Error(ctx, "resolving customer for checkout failed", err)
		return s.cancelURL
	}

	successURL := next
	if successURL == "" {
		successURL = s.successURL
	}
	successURL = appendQueryParam(successURL, refreshParam, "1")

	params := s.sessionParams(account, price, customerID, successURL)
	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	s.metrics.IncProviderCall("checkout.sessions.create", err)
	if err != nil {
		s.logg.Error(s.logg.WithCustomerID(ctx, customerID), "creating checkout session failed", err)
		return s.cancelURL
	}
	return session.URL
}

func (s *Service) sessionParams(account *models.Account, price catalog.Price, customerID, successURL string) *stripe.CheckoutSessionParams {
	metadata := SessionMetadata{
		AccountID: account.ID.String(),
		PriceID:   price.ID,
		PriceName: price.Name,
		Type:      "payment",
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(price.ID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}

	if price.IsRecurring() {
		metadata.Type = "subscription"
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata.toMap(),
		}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata.toMap(),
		}
	}
	return params
}

// SendToPortal returns the billing portal URL for the account, or the bare
// return URL when no verified customer exists.
func (s *Service) SendToPortal(ctx context.Context, account *models.Account, returnURL string) string {
	if returnURL == "" {
		returnURL = s.successURL
	}
	if account == nil {
		return returnURL
	}
	ctx = s.logg.WithAccountID(ctx, account.ID.String())

	customerID, ok, err := s.resolver.Resolve(ctx, account, true)
	if err != nil {
		s.logg.Error(ctx, "verifying customer for portal failed", err)
		return returnURL
	}
	if !ok {
		return returnURL
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(appendQueryParam(returnURL, refreshParam, "1")),
	}
	if s.portalConfiguration != "" {
		params.Configuration = stripe.String(s.portalConfiguration)
	}

	session, err := s.stripe.CreatePortalSession(ctx, params)
	s.metrics.IncProviderCall("billing_portal.sessions.create", err)
	if err != nil {
		s.logg.Error(s.logg.WithCustomerID(ctx, customerID), "creating portal session failed", err)
		return returnURL
	}
	return session.URL
}

func appendQueryParam(rawURL, key, value string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	query.Set(key, value)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
