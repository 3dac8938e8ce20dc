package entitlements

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/entitle-backend/internal/catalog"
	"github.com/angelmondragon/entitle-backend/pkg/cache"
	"github.com/angelmondragon/entitle-backend/pkg/db/models"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
	"github.com/angelmondragon/entitle-backend/pkg/metrics"
)

const recordsCachePrefix = "ent:cache:billing:records:"

// CatalogSource yields the recognized price catalog.
type CatalogSource interface {
	Prices(ctx context.Context) (*catalog.Catalog, error)
}

// ServiceParams groups dependencies for the entitlement service.
type ServiceParams struct {
	Fetcher  *Fetcher
	Resolver *Resolver
	Catalog  CatalogSource
	Cache    *cache.Cache
	CacheTTL time.Duration
	Logger   *logger.Logger
	Metrics  *metrics.BillingMetrics
}

// Service resolves the current entitlement for an account, caching fetched
// records between refreshes.
type Service struct {
	fetcher  *Fetcher
	resolver *Resolver
	catalog  CatalogSource
	cache    *cache.Cache
	cacheTTL time.Duration
	logg     *logger.Logger
	metrics  *metrics.BillingMetrics

	// now is swappable in tests.
	now func() time.Time
}

// Result is the outcome of an entitlement resolution.
type Result struct {
	CustomerID  string       `json:"customer_id,omitempty"`
	Entitlement *Entitlement `json:"entitlement"`
	Records     RecordSet    `json:"records"`
	FromCache   bool         `json:"-"`
}

// Entitled reports whether any record currently grants access.
func (r *Result) Entitled() bool {
	return r != nil && r.Entitlement != nil
}

// NewService builds an entitlement service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if params.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if params.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if params.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if params.CacheTTL <= 0 {
		return nil, errors.New("cache ttl must be positive")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		fetcher:  params.Fetcher,
		resolver: params.Resolver,
		catalog:  params.Catalog,
		cache:    params.Cache,
		cacheTTL: params.CacheTTL,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// Resolver exposes the customer resolver for callers that need it directly.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Current resolves the account's entitlement. Without a linked customer no
// provider call is made. force bypasses the cache read; otherwise a live
// cached record set short-circuits the fetch.
func (s *Service) Current(ctx context.Context, account *models.Account, force bool) (*Result, error) {
	customerID, ok, err := s.resolver.Resolve(ctx, account, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{}, nil
	}

	ctx = s.logg.WithCustomerID(ctx, customerID)
	key := recordsCachePrefix + customerID

	if !force {
		var cached RecordSet
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logg.Warn(ctx, "record cache read failed, refetching")
		}
		if hit {
			s.metrics.IncCacheHit("records")
			return s.evaluate(customerID, cached, true), nil
		}
		s.metrics.IncCacheMiss("records")
	}

	started := s.now()
	set := s.fetchRecords(ctx, customerID)
	source := "miss"
	if force {
		source = "force"
	}
	s.metrics.ObserveRefresh(source, s.now().Sub(started))

	if err := s.cache.Set(ctx, key, set, s.cacheTTL); err != nil {
		s.logg.Warn(ctx, "record cache write failed")
	}

	return s.evaluate(customerID, set, false), nil
}

func (s *Service) fetchRecords(ctx context.Context, customerID string) RecordSet {
	cat, err := s.catalog.Prices(ctx)
	if err != nil {
		s.logg.Error(ctx, "price catalog unavailable, treating records as empty", err)
		return RecordSet{}
	}
	return s.fetcher.FetchAll(ctx, customerID, cat)
}

func (s *Service) evaluate(customerID string, set RecordSet, fromCache bool) *Result {
	return &Result{
		CustomerID:  customerID,
		Entitlement: SelectActivePlan(set, s.now()),
		Records:     set,
		FromCache:   fromCache,
	}
}
