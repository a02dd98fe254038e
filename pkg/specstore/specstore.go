// Package specstore fetches and caches OpenAPI documents for demos
// that declare an OpenAPI source. Fetched documents stay valid for a
// TTL window; concurrent loads of one URL share a single fetch.
package specstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"stagehand/engine/pkg/cachettl"
	"stagehand/engine/pkg/httpclient"
	"stagehand/engine/pkg/openapi"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a fetched document is served from cache.
const DefaultTTL = 5 * time.Minute

// Fetcher retrieves raw spec data for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches spec data over HTTP.
type HTTPFetcher struct {
	Client httpclient.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = httpclient.New()
	}

	resp, err := httpclient.Send(ctx, client, httpclient.Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("spec fetch for %s returned status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

// Store is the spec cache. Safe for concurrent use; entries for one URL
// are interchangeable within the TTL window, so racing writers are
// harmless.
type Store struct {
	fetcher Fetcher
	cache   *cachettl.Cache[string, *openapi.Document]
	group   singleflight.Group
	log     *slog.Logger
}

type Option func(*options)

type options struct {
	ttl time.Duration
	log *slog.Logger
	now func() time.Time
}

// WithTTL overrides the cache window.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithLogger attaches a logger for fetch diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock injects a clock, for tests that control time.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(fetcher Fetcher, opts ...Option) *Store {
	o := options{
		ttl: DefaultTTL,
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{
		fetcher: fetcher,
		cache:   cachettl.NewWithClock[string, *openapi.Document](o.ttl, 0, o.now),
		log:     o.log,
	}
}

// Load returns the document for url, fetching it when the cache has no
// live entry. A fetch or parse failure is returned to the caller, which
// treats it as "no OpenAPI augmentation available" and keeps the demo
// running without generated forms.
func (s *Store) Load(ctx context.Context, url string) (*openapi.Document, error) {
	if doc, ok := s.cache.Get(url); ok {
		return doc, nil
	}

	value, err, _ := s.group.Do(url, func() (any, error) {
		// A concurrent load may have filled the cache while this call
		// waited its turn.
		if doc, ok := s.cache.Get(url); ok {
			return doc, nil
		}

		data, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			s.log.WarnContext(ctx, "spec fetch failed", "url", url, "error", err)
			return nil, err
		}

		doc, err := openapi.Parse(data)
		if err != nil {
			s.log.WarnContext(ctx, "spec rejected", "url", url, "error", err)
			return nil, err
		}

		s.cache.Set(url, doc)
		s.log.DebugContext(ctx, "spec cached", "url", url, "paths", len(doc.Paths))
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	return value.(*openapi.Document), nil
}

// Invalidate drops the cached document for url, forcing the next Load
// to fetch.
func (s *Store) Invalidate(url string) {
	s.cache.Delete(url)
}
