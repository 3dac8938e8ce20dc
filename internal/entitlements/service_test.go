package entitlements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/entitle-backend/internal/catalog"
	"github.com/angelmondragon/entitle-backend/pkg/cache"
	"github.com/stripe/stripe-go/v84"
)

type stubCatalogSource struct {
	cat   *catalog.Catalog
	err   error
	calls int
}

func (s *stubCatalogSource) Prices(context.Context) (*catalog.Catalog, error) {
	s.calls++
	return s.cat, s.err
}

type countingBillingClient struct {
	stubBillingClient
	subListCalls int
	payListCalls int
}

func (c *countingBillingClient) ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	c.subListCalls++
	return c.stubBillingClient.ListSubscriptions(ctx, customerID)
}

func (c *countingBillingClient) ListPaymentIntents(ctx context.Context, customerID string) ([]*stripe.PaymentIntent, error) {
	c.payListCalls++
	return c.stubBillingClient.ListPaymentIntents(ctx, customerID)
}

func newTestEntitlementService(t *testing.T, client StripeBillingClient, source CatalogSource) (*Service, *cache.Cache) {
	t.Helper()
	logg := fetcherTestLogger()
	fetcher, err := NewFetcher(FetcherParams{Stripe: client, Logger: logg})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	resolver, err := NewResolver(ResolverParams{Stripe: client, Accounts: &stubAccountsRepo{}, Logger: logg})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	store := cache.New(cache.NewMemoryStore())
	svc, err := NewService(ServiceParams{
		Fetcher:  fetcher,
		Resolver: resolver,
		Catalog:  source,
		Cache:    store,
		CacheTTL: time.Hour,
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestCurrentWithoutCustomerMakesNoProviderCalls(t *testing.T) {
	client := &countingBillingClient{}
	source := &stubCatalogSource{}
	svc, _ := newTestEntitlementService(t, client, source)

	result, err := svc.Current(context.Background(), accountWithCustomer(""), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entitled() {
		t.Fatal("expected no entitlement")
	}
	if !result.Records.IsEmpty() {
		t.Fatal("expected empty record set")
	}
	if client.subListCalls+client.payListCalls+source.calls != 0 {
		t.Fatal("expected zero provider calls without a customer id")
	}
}

func TestCurrentFetchesAndCaches(t *testing.T) {
	client := &countingBillingClient{stubBillingClient: stubBillingClient{
		subs: []*stripe.Subscription{subWithPrice("sub_1", "price_month", false)},
	}}
	source := &stubCatalogSource{cat: testCatalog(t)}
	svc, _ := newTestEntitlementService(t, client, source)
	account := accountWithCustomer("cus_1")

	result, err := svc.Current(context.Background(), account, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Entitled() || result.Entitlement.RecordID != "sub_1" {
		t.Fatalf("expected sub_1 entitlement, got %+v", result.Entitlement)
	}
	if result.FromCache {
		t.Fatal("first resolution must not come from cache")
	}

	// Second call is served from cache without touching the provider.
	again, err := svc.Current(context.Background(), account, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.FromCache {
		t.Fatal("expected cache hit")
	}
	if !again.Entitled() || again.Entitlement.RecordID != "sub_1" {
		t.Fatalf("cached evaluation diverged: %+v", again.Entitlement)
	}
	if client.subListCalls != 1 {
		t.Fatalf("expected 1 subscription list call, got %d", client.subListCalls)
	}
}

func TestCurrentForceBypassesCacheRead(t *testing.T) {
	client := &countingBillingClient{stubBillingClient: stubBillingClient{
		subs: []*stripe.Subscription{subWithPrice("sub_1", "price_month", false)},
	}}
	source := &stubCatalogSource{cat: testCatalog(t)}
	svc, _ := newTestEntitlementService(t, client, source)
	account := accountWithCustomer("cus_1")

	if _, err := svc.Current(context.Background(), account, false); err != nil {
		t.Fatalf("warm call: %v", err)
	}
	if _, err := svc.Current(context.Background(), account, true); err != nil {
		t.Fatalf("force call: %v", err)
	}
	if client.subListCalls != 2 {
		t.Fatalf("expected force to refetch, got %d list calls", client.subListCalls)
	}
}

func TestCurrentForceRewritesCache(t *testing.T) {
	client := &countingBillingClient{stubBillingClient: stubBillingClient{
		subs: []*stripe.Subscription{subWithPrice("sub_1", "price_month", false)},
	}}
	source := &stubCatalogSource{cat: testCatalog(t)}
	svc, _ := newTestEntitlementService(t, client, source)
	account := accountWithCustomer("cus_1")

	if _, err := svc.Current(context.Background(), account, true); err != nil {
		t.Fatalf("force call: %v", err)
	}

	// The forced fetch must have refilled the cache.
	result, err := svc.Current(context.Background(), account, false)
	if err != nil {
		t.Fatalf("follow-up call: %v", err)
	}
	if !result.FromCache {
		t.Fatal("expected forced refresh to populate the cache")
	}
}

func TestCurrentDegradesWhenCatalogUnavailable(t *testing.T) {
	client := &countingBillingClient{stubBillingClient: stubBillingClient{
		subs: []*stripe.Subscription{subWithPrice("sub_1", "price_month", false)},
	}}
	source := &stubCatalogSource{err: errors.New("stripe down")}
	svc, _ := newTestEntitlementService(t, client, source)

	result, err := svc.Current(context.Background(), accountWithCustomer("cus_1"), false)
	if err != nil {
		t.Fatalf("expected degradation, got error: %v", err)
	}
	if result.Entitled() {
		t.Fatal("expected no entitlement when catalog is unavailable")
	}
}

func TestCurrentExpiredCacheRefetches(t *testing.T) {
	client := &countingBillingClient{stubBillingClient: stubBillingClient{
		subs: []*stripe.Subscription{subWithPrice("sub_1", "price_month", false)},
	}}
	source := &stubCatalogSource{cat: testCatalog(t)}

	logg := fetcherTestLogger()
	fetcher, _ := NewFetcher(FetcherParams{Stripe: client, Logger: logg})
	resolver, _ := NewResolver(ResolverParams{Stripe: client, Accounts: &stubAccountsRepo{}, Logger: logg})

	memory := cache.NewMemoryStore()
	svc, err := NewService(ServiceParams{
		Fetcher:  fetcher,
		Resolver: resolver,
		Catalog:  source,
		Cache:    cache.New(memory),
		CacheTTL: time.Millisecond,
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	account := accountWithCustomer("cus_1")

	if _, err := svc.Current(context.Background(), account, false); err != nil {
		t.Fatalf("warm call: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	result, err := svc.Current(context.Background(), account, false)
	if err != nil {
		t.Fatalf("expired call: %v", err)
	}
	if result.FromCache {
		t.Fatal("expired entry must not be served")
	}
	if client.subListCalls != 2 {
		t.Fatalf("expected refetch after expiry, got %d", client.subListCalls)
	}
}
