// Package factor resolves emission factors for ingredients, energy, packaging
// materials and transport modes.
//
// Each matcher is an ordered list of lookup steps against the factor catalog;
// the first step that yields a factor with a value wins. Every decision,
// including "no factor", is cached under name|category|region for the cache
// TTL and consulted before the catalog.
package factor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine/cache"
)

// Query filters the factor catalog. Empty fields match anything.
// Only active factors are ever returned.
type Query struct {
	Name        string
	Alias       string
	Category    carbon.FactorCategory
	SubCategory string
	Region      string
}

// Catalog is the emission factor collaborator.
type Catalog interface {
	FindFactors(ctx context.Context, q Query) ([]carbon.EmissionFactor, error)
}

// Region is one entry of the factor region registry.
type Region struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Country    string `json:"country"`
	ParentCode string `json:"parentCode,omitempty"`
	Level      int    `json:"level"`
}

// RegionRegistry looks up active factor regions. A missing region is (nil, nil).
type RegionRegistry interface {
	LookupFactorRegion(ctx context.Context, code string) (*Region, error)
}

// Matcher is the Emission Factor Matcher.
type Matcher struct {
	catalog       Catalog
	regions       RegionRegistry
	defaultRegion string

	factors *cache.MemoryStore[*carbon.EmissionFactor]
	valid   *cache.MemoryStore[*Region]
	group   singleflight.Group
	metrics *Metrics
}

// Option configures a Matcher.
type Option func(*matcherOptions)

type matcherOptions struct {
	ttl           time.Duration
	threshold     int
	now           func() time.Time
	registerer    prometheus.Registerer
	defaultRegion string
}

// WithTTL sets the lifetime of cached decisions.
func WithTTL(ttl time.Duration) Option {
	return func(o *matcherOptions) { o.ttl = ttl }
}

// WithCleanupThreshold sets the cache size that triggers an expiry sweep.
func WithCleanupThreshold(n int) Option {
	return func(o *matcherOptions) { o.threshold = n }
}

// WithClock overrides the cache time source.
func WithClock(now func() time.Time) Option {
	return func(o *matcherOptions) { o.now = now }
}

// WithRegisterer registers cache metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *matcherOptions) { o.registerer = reg }
}

// WithDefaultRegion sets the region used when a requested region is invalid.
func WithDefaultRegion(code string) Option {
	return func(o *matcherOptions) {
		if code != "" {
			o.defaultRegion = code
		}
	}
}

// NewMatcher creates a Matcher. A nil registry accepts the built-in region codes.
func NewMatcher(catalog Catalog, regions RegionRegistry, opts ...Option) *Matcher {
	o := matcherOptions{
		ttl:           cache.DefaultTTL,
		threshold:     cache.DefaultCleanupThreshold,
		now:           time.Now,
		defaultRegion: carbon.DefaultFactorRegion,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cacheOpts := []cache.Option{cache.WithCleanupThreshold(o.threshold), cache.WithClock(o.now)}
	return &Matcher{
		catalog:       catalog,
		regions:       regions,
		defaultRegion: o.defaultRegion,
		factors:       cache.NewMemoryStore[*carbon.EmissionFactor](o.ttl, cacheOpts...),
		valid:         cache.NewMemoryStore[*Region](o.ttl, cacheOpts...),
		metrics:       NewMetrics(o.registerer),
	}
}
