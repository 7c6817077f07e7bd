// Package loader fetches the prioritization dataset, parses it and keeps the
// result in a time-bounded cache keyed by the data reference.
//
// Load is read-through: the cache is consulted before any network call.
// Concurrent misses for the same reference share one fetch. Failures are
// returned as *FetchError or *ParseError and are never cached.
package loader

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"ecorecovery/internal/cache"
	"ecorecovery/internal/dataset"
)

// DefaultTTL is how long a loaded dataset is reused.
const DefaultTTL = 5 * time.Minute

// RefreshListener is notified after a dataset has been fetched from its
// source, not when it is served from cache.
type RefreshListener func(ref string, ds *dataset.Dataset)

// Loader loads datasets through a cache.
type Loader struct {
	sources  map[string]Source
	cache    cache.Cache[*dataset.Dataset]
	clock    cache.Clock
	ttl      time.Duration
	logger   *slog.Logger
	metrics  *Metrics
	group    singleflight.Group
	mu       sync.RWMutex
	listener []RefreshListener
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache injects the dataset cache.
func WithCache(c cache.Cache[*dataset.Dataset]) Option {
	return func(l *Loader) { l.cache = c }
}

// WithClock injects the clock used for expiry.
func WithClock(c cache.Clock) Option {
	return func(l *Loader) { l.clock = c }
}

// WithTTL sets the cache lifetime of a loaded dataset.
func WithTTL(ttl time.Duration) Option {
	return func(l *Loader) { l.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithMetrics sets the OpenTelemetry instruments.
func WithMetrics(m *Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithSource registers src for a URL scheme, replacing any previous one.
func WithSource(scheme string, src Source) Option {
	return func(l *Loader) { l.sources[strings.ToLower(scheme)] = src }
}

// New creates a Loader. By default http and https references go through an
// HTTPSource with a 30s timeout, file references through FileSource, and
// results are cached in memory for DefaultTTL.
func New(opts ...Option) *Loader {
	httpSrc := NewHTTPSource(30 * time.Second)
	l := &Loader{
		sources: map[string]Source{
			"http":  httpSrc,
			"https": httpSrc,
			"file":  FileSource{},
		},
		ttl: DefaultTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.clock == nil {
		l.clock = cache.SystemClock{}
	}
	if l.cache == nil {
		l.cache = cache.NewMemoryCache[*dataset.Dataset](16, l.clock)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", "loader")
	return l
}

// OnRefresh registers a listener for freshly fetched datasets.
func (l *Loader) OnRefresh(fn RefreshListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listener = append(l.listener, fn)
}

// Load returns the dataset behind ref, from cache when a live entry exists.
// A successful result may hold zero records; a failed load returns a nil
// dataset and a *FetchError or *ParseError.
func (l *Loader) Load(ctx context.Context, ref string) (*dataset.Dataset, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		err := &FetchError{URL: ref, Err: ErrEmptyURL}
		l.logFailure(ctx, ref, err)
		return nil, err
	}

	if ds, ok := l.cache.Get(ref); ok {
		l.metrics.recordCache(ctx, true)
		return ds, nil
	}
	l.metrics.recordCache(ctx, false)

	// The shared fetch outlives any single caller's cancellation; each caller
	// still stops waiting when its own context ends.
	ch := l.group.DoChan(ref, func() (interface{}, error) {
		return l.fetch(context.WithoutCancel(ctx), ref)
	})

	select {
	case <-ctx.Done():
		err := &FetchError{URL: ref, Err: ctx.Err()}
		l.logFailure(ctx, ref, err)
		return nil, err
	case res := <-ch:
		if res.Err != nil {
			l.logFailure(ctx, ref, res.Err)
			return nil, res.Err
		}
		return res.Val.(*dataset.Dataset), nil
	}
}

// Invalidate drops the cached dataset for ref so the next Load fetches.
func (l *Loader) Invalidate(ref string) {
	l.cache.Invalidate(strings.TrimSpace(ref))
	l.logger.Info("dataset cache invalidated", slog.String("url", redact(ref)))
}

// CacheStats reports the cache counters. ok is false when the injected cache
// does not keep any.
func (l *Loader) CacheStats() (stats cache.Stats, ok bool) {
	sc, ok := l.cache.(interface{ GetStats() cache.Stats })
	if !ok {
		return cache.Stats{}, false
	}
	return sc.GetStats(), true
}

// Reload invalidates ref and loads it again.
func (l *Loader) Reload(ctx context.Context, ref string) (*dataset.Dataset, error) {
	l.Invalidate(ref)
	return l.Load(ctx, ref)
}

func (l *Loader) fetch(ctx context.Context, ref string) (*dataset.Dataset, error) {
	// Another caller may have filled the cache while this one queued.
	if ds, ok := l.cache.Get(ref); ok {
		return ds, nil
	}

	scheme := schemeOf(ref)
	start := time.Now()

	ctx, span := startSpan(ctx, "fetch",
		attribute.String("source.scheme", scheme),
		attribute.String("source.url", redact(ref)),
	)
	data, err := l.fetchBytes(ctx, scheme, ref)
	endSpan(span, err)
	if err != nil {
		l.metrics.recordFetch(ctx, scheme, time.Since(start), 0, 0, err)
		return nil, err
	}

	_, span = startSpan(ctx, "parse", attribute.Int("document.bytes", len(data)))
	records, err := ParseCSV(bytes.NewReader(data))
	endSpan(span, err)
	if err != nil {
		l.metrics.recordFetch(ctx, scheme, time.Since(start), len(data), 0, err)
		return nil, err
	}

	now := l.clock.Now()
	ds := dataset.NewFromSource(records, ref, now)
	l.cache.Put(ref, ds, now.Add(l.ttl))
	l.metrics.recordFetch(ctx, scheme, time.Since(start), len(data), ds.Len(), nil)

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("url", redact(ref)),
		slog.Int("records", ds.Len()),
		slog.Int("bytes", len(data)),
		slog.Duration("ttl", l.ttl))

	l.mu.RLock()
	listeners := append([]RefreshListener(nil), l.listener...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		fn(ref, ds)
	}
	return ds, nil
}

func (l *Loader) fetchBytes(ctx context.Context, scheme, ref string) ([]byte, error) {
	src, ok := l.sources[scheme]
	if !ok {
		return nil, &FetchError{URL: ref, Err: ErrUnsupportedScheme}
	}
	data, err := src.Fetch(ctx, ref)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: ref, Err: err}
		}
		return nil, err
	}
	return data, nil
}

func (l *Loader) logFailure(ctx context.Context, ref string, err error) {
	l.logger.ErrorContext(ctx, "dataset load failed",
		slog.String("url", redact(ref)),
		slog.String("error_type", errorType(err)),
		slog.String("error", err.Error()))
}

// schemeOf returns the lower-cased URL scheme; bare paths count as file.
func schemeOf(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}

// redact strips credentials and the query string from a reference before it
// is logged.
func redact(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return ref
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
