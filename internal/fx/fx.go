// Package fx converts host contributions into the currency the HighRoller threshold is set in.
package fx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/httpclient"

	cache "github.com/patrickmn/go-cache"
)

// RateProvider returns the multiplier from the base to the quote currency
type RateProvider interface {
	Rate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

// Converter applies the configured currency pair to amounts
type Converter struct {
	provider RateProvider
	base     string
	quote    string
}

// NewConverter builds the converter described by cfg. A blank URL uses the static rate.
func NewConverter(cfg config.FXConfig, logger *logrus.Logger) *Converter {
	var provider RateProvider = StaticProvider{rate: decimal.NewFromFloat(cfg.Rate)}
	if cfg.URL != "" {
		provider = NewCachedProvider(NewHTTPProvider(cfg.URL, logger), time.Duration(cfg.CacheTTLSeconds)*time.Second)
	}
	return &Converter{provider: provider, base: cfg.BaseCurrency, quote: cfg.QuoteCurrency}
}

// NewConverterWithProvider builds a converter over an explicit provider
func NewConverterWithProvider(provider RateProvider, base, quote string) *Converter {
	return &Converter{provider: provider, base: base, quote: quote}
}

// Convert returns amount expressed in the quote currency
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	rate, err := c.provider.Rate(ctx, c.base, c.quote)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get %s/%s rate: %w", c.base, c.quote, err)
	}
	return amount.Mul(rate), nil
}

// StaticProvider always returns the same rate
type StaticProvider struct {
	rate decimal.Decimal
}

// NewStaticProvider creates a fixed-rate provider
func NewStaticProvider(rate decimal.Decimal) StaticProvider {
	return StaticProvider{rate: rate}
}

// Rate returns the fixed rate
func (s StaticProvider) Rate(context.Context, string, string) (decimal.Decimal, error) {
	return s.rate, nil
}

type rateResponse struct {
	Rate decimal.Decimal `json:"rate"`
}

// HTTPProvider fetches rates from a JSON endpoint: GET <url>?base=XXX&quote=YYY -> {"rate": "0.0012"}
type HTTPProvider struct {
	url    string
	client *httpclient.Client
}

// NewHTTPProvider creates an HTTP rate provider
func NewHTTPProvider(endpoint string, logger *logrus.Logger) *HTTPProvider {
	return &HTTPProvider{url: endpoint, client: httpclient.New(httpclient.DefaultConfig("fx"), logger)}
}

// Rate fetches the current rate
func (h *HTTPProvider) Rate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	u, err := url.Parse(h.url)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid fx url: %w", err)
	}
	q := u.Query()
	q.Set("base", base)
	q.Set("quote", quote)
	u.RawQuery = q.Encode()

	var out rateResponse
	if err := h.client.DoJSON(ctx, http.MethodGet, u.String(), nil, nil, &out); err != nil {
		return decimal.Zero, err
	}
	if !out.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("fx provider returned non-positive rate %s", out.Rate)
	}
	return out.Rate, nil
}

// CachedProvider memoizes another provider's rates for a TTL
type CachedProvider struct {
	next   RateProvider
	cache  *cache.Cache
	ttl    time.Duration
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedProvider wraps next with a TTL cache
func NewCachedProvider(next RateProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: cache.New(ttl, ttl*2), ttl: ttl}
}

// Rate serves from cache, falling through to the wrapped provider on a miss
func (c *CachedProvider) Rate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	key := base + ":" + quote
	if v, found := c.cache.Get(key); found {
		if rate, ok := v.(decimal.Decimal); ok {
			c.hits.Add(1)
			return rate, nil
		}
	}
	c.misses.Add(1)

	rate, err := c.next.Rate(ctx, base, quote)
	if err != nil {
		return decimal.Zero, err
	}
	c.cache.Set(key, rate, c.ttl)
	return rate, nil
}

// Stats returns cache hit and miss counts
func (c *CachedProvider) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
