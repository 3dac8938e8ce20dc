package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/entitle-backend/pkg/cache"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
	"github.com/angelmondragon/entitle-backend/pkg/metrics"
	"github.com/stripe/stripe-go/v84"
)

const (
	pricesCacheKey = "ent:cache:prices"
	pricesCacheTTL = 5 * time.Minute

	metadataValidityKey = "validity"
	metadataLifetimeKey = "lifetime"
)

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Stripe  StripePriceClient
	Cache   *cache.Cache
	Logger  *logger.Logger
	Metrics *metrics.BillingMetrics

	// PriceIDs limits the catalog to the configured prices. Empty means
	// every active price on the account.
	PriceIDs []string
}

// Service resolves the recognized price catalog with a short provider cache.
type Service struct {
	stripe   StripePriceClient
	cache    *cache.Cache
	logg     *logger.Logger
	metrics  *metrics.BillingMetrics
	priceIDs []string
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Stripe == nil {
		return nil, errors.New("stripe client is required")
	}
	if params.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		stripe:   params.Stripe,
		cache:    params.Cache,
		logg:     params.Logger,
		metrics:  params.Metrics,
		priceIDs: params.PriceIDs,
	}, nil
}

// Prices returns the recognized catalog, served from cache within the TTL.
func (s *Service) Prices(ctx context.Context) (*Catalog, error) {
	var cached []Price
	hit, err := s.cache.Get(ctx, pricesCacheKey, &cached)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", pricesCacheKey), "price cache read failed")
	}
	if hit {
		s.metrics.IncCacheHit("prices")
		return BuildCatalog(cached)
	}
	s.metrics.IncCacheMiss("prices")

	prices, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	built, err := BuildCatalog(prices)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, pricesCacheKey, prices, pricesCacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", pricesCacheKey), "price cache write failed")
	}
	return built, nil
}

func (s *Service) fetch(ctx context.Context) ([]Price, error) {
	if len(s.priceIDs) == 0 {
		raw, err := s.stripe.ListActive(ctx)
		s.metrics.IncProviderCall("prices.list", err)
		if err != nil {
			return nil, fmt.Errorf("listing active prices: %w", err)
		}
		return mapPrices(raw), nil
	}

	prices := make([]Price, 0, len(s.priceIDs))
	for _, id := range s.priceIDs {
		raw, err := s.stripe.Get(ctx, id)
		s.metrics.IncProviderCall("prices.get", err)
		if err != nil {
			return nil, fmt.Errorf("retrieving price %s: %w", id, err)
		}
		prices = append(prices, priceFromStripe(raw))
	}
	return prices, nil
}

// BuildCatalog indexes prices by slug name, rejecting duplicate names so a
// misconfigured catalog fails loudly instead of silently shadowing a price.
func BuildCatalog(prices []Price) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]Price, len(prices)),
		byID:   make(map[string]Price, len(prices)),
	}
	for _, price := range prices {
		if price.ID == "" {
			return nil, errors.New("price with empty id")
		}
		if _, exists := c.byName[price.Name]; exists {
			return nil, fmt.Errorf("duplicate price name %q", price.Name)
		}
		c.byName[price.Name] = price
		c.byID[price.ID] = price
		c.names = append(c.names, price.Name)
	}
	return c, nil
}

func mapPrices(raw []*stripe.Price) []Price {
	prices := make([]Price, 0, len(raw))
	for _, p := range raw {
		prices = append(prices, priceFromStripe(p))
	}
	return prices
}

func priceFromStripe(p *stripe.Price) Price {
	name := Slugify(p.Nickname)
	if name == "" {
		name = Slugify(p.ID)
	}

	priceType := PriceTypeOneTime
	if p.Type == stripe.PriceTypeRecurring {
		priceType = PriceTypeRecurring
	}

	var validity int64
	if raw, ok := p.Metadata[metadataValidityKey]; ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && parsed > 0 {
			validity = parsed
		}
	}

	return Price{
		ID:              p.ID,
		Name:            name,
		Nickname:        p.Nickname,
		UnitAmount:      p.UnitAmount,
		Currency:        string(p.Currency),
		Type:            priceType,
		ValidityMinutes: validity,
		Lifetime:        strings.EqualFold(p.Metadata[metadataLifetimeKey], "true"),
	}
}
