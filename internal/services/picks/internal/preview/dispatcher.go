package preview

import (
	"context"
	"log/slog"
	"time"
)

type Resolver interface {
	Match(u string) bool
	Resolve(ctx context.Context, u string) Result
}

// Dispatcher routes a link to the first resolver that claims it. A resolver
// that finds nothing, or cannot be reached, hands the link to the next
// matching one; the generic site resolver is always last.
type Dispatcher struct {
	resolvers []Resolver
	cache     Cache
	ttl       time.Duration
	log       *slog.Logger
}

type DispatcherOption func(*Dispatcher)

// WithCache stores provider-backed previews. Fallback previews are never
// cached so a later request can still succeed.
func WithCache(c Cache, ttl time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.cache = c
		d.ttl = ttl
	}
}

func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

func NewDispatcher(resolvers []Resolver, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		resolvers: resolvers,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Resolve(ctx context.Context, u string) Result {
	key := cacheKey(u)
	if d.cache != nil {
		if p, ok := d.cache.Get(ctx, key); ok {
			p.URL = u
			return Resolved(p)
		}
	}

	res := NotFound()
	for _, r := range d.resolvers {
		if !r.Match(u) {
			continue
		}

		res = r.Resolve(ctx, u)
		if res.Status == StatusResolved {
			break
		}
		if res.Status == StatusUnavailable {
			d.log.Warn("preview provider unavailable", "url", u, "error", res.Err)
		}
	}

	if res.Status != StatusResolved {
		return res
	}

	// Providers may canonicalize the link; the session keys previews by the
	// URL typed by the user.
	res.Preview.URL = u

	if res.Fallback {
		d.log.Warn("preview degraded to fallback", "url", u, "error", res.Err)
		return res
	}

	if d.cache != nil {
		d.cache.Set(ctx, key, res.Preview, d.ttl)
	}
	return res
}

func cacheKey(u string) string {
	return "preview:" + u
}
