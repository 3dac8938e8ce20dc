package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/entitle-backend/api/middleware"
	"github.com/angelmondragon/entitle-backend/internal/checkout"
	"github.com/angelmondragon/entitle-backend/internal/entitlements"
	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v84"
)

type stubSessionClient struct {
	checkoutParams *stripe.CheckoutSessionParams
}

func (s *stubSessionClient) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.checkoutParams = params
	return &stripe.CheckoutSession{URL: "https://checkout.stripe.com/session"}, nil
}

func (s *stubSessionClient) CreatePortalSession(context.Context, *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/portal"}, nil
}

func newCheckoutService(t *testing.T, f *fixture, sessions *stubSessionClient) *checkout.Service {
	t.Helper()
	logg := testLogger()
	resolver, err := entitlements.NewResolver(entitlements.ResolverParams{
		Stripe:   f.client,
		Accounts: f.repo,
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	svc, err := checkout.NewService(checkout.ServiceParams{
		Stripe:     sessions,
		Catalog:    &stubCatalogSource{cat: testCatalog(t)},
		Resolver:   resolver,
		Logger:     logg,
		SuccessURL: "https://app.example.com/account",
		CancelURL:  "https://app.example.com/",
	})
	if err != nil {
		t.Fatalf("new checkout service: %v", err)
	}
	return svc
}

func checkoutRequest(t *testing.T, f *fixture, svc *checkout.Service, target string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Get("/api/v1/billing/checkout/{priceName}", Checkout(svc, f.repo, testLogger()))
	router.Get("/api/v1/billing/portal", Portal(svc, f.repo, testLogger()))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authed {
		req = req.WithContext(middleware.WithAccountID(req.Context(), f.account.ID))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckoutRedirectsToSession(t *testing.T) {
	f := newFixture(t, &stubBillingClient{})
	sessions := &stubSessionClient{}
	svc := newCheckoutService(t, f, sessions)

	w := checkoutRequest(t, f, svc, "/api/v1/billing/checkout/day-pass", true)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "https://checkout.stripe.com/session" {
		t.Fatalf("unexpected redirect %q", got)
	}
	if sessions.checkoutParams == nil {
		t.Fatal("expected session creation")
	}
}

func TestCheckoutWithoutIdentityRedirectsToCancel(t *testing.T) {
	f := newFixture(t, &stubBillingClient{})
	sessions := &stubSessionClient{}
	svc := newCheckoutService(t, f, sessions)

	w := checkoutRequest(t, f, svc, "/api/v1/billing/checkout/day-pass", false)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "https://app.example.com/" {
		t.Fatalf("expected cancel redirect, got %q", got)
	}
	if sessions.checkoutParams != nil {
		t.Fatal("must not create a session without identity")
	}
}

func TestCheckoutUnknownPriceRedirectsToCancel(t *testing.T) {
	f := newFixture(t, &stubBillingClient{})
	svc := newCheckoutService(t, f, &stubSessionClient{})

	w := checkoutRequest(t, f, svc, "/api/v1/billing/checkout/gold-tier", true)
	if got := w.Header().Get("Location"); got != "https://app.example.com/" {
		t.Fatalf("expected cancel redirect, got %q", got)
	}
}

func TestPortalRedirectsVerifiedCustomer(t *testing.T) {
	f := newFixture(t, &stubBillingClient{})
	svc := newCheckoutService(t, f, &stubSessionClient{})

	w := checkoutRequest(t, f, svc, "/api/v1/billing/portal?return_url=https%3A%2F%2Fapp.example.com%2Fsettings", true)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "https://billing.stripe.com/portal" {
		t.Fatalf("expected portal redirect, got %q", got)
	}
}

func TestPortalWithoutIdentityRedirectsToReturnURL(t *testing.T) {
	f := newFixture(t, &stubBillingClient{})
	svc := newCheckoutService(t, f, &stubSessionClient{})

	w := checkoutRequest(t, f, svc, "/api/v1/billing/portal?return_url=https%3A%2F%2Fapp.example.com%2Fsettings", false)
	if got := w.Header().Get("Location"); got != "https://app.example.com/settings" {
		t.Fatalf("expected bare return url, got %q", got)
	}
}
