package offline

import (
	"context"

	"github.com/jonwraymond/offlinekit/cache"
)

// DefaultTTL is the freshness window applied when Options.TTL is empty.
const DefaultTTL = "5m"

// Options configures a wrapped producer.
type Options struct {
	// TTL is the freshness window, in the duration grammar accepted by
	// cache.ParseDuration. Defaults to DefaultTTL.
	TTL string

	// MaxStale extends how long an expired result may still be served.
	MaxStale string

	// StaleWhileRevalidate serves stale results immediately and refreshes
	// them in the background.
	StaleWhileRevalidate bool

	// Tags label cached results for bulk invalidation.
	Tags []string

	// Keyer derives cache keys. Defaults to DefaultKeyer.
	Keyer Keyer
}

// Producer is the function shape Wrap decorates: one parameter value in, one
// result out.
type Producer[P, T any] func(ctx context.Context, params P) (T, error)

// Wrap decorates producer with cache-aside semantics through m. Each call
// derives a key from name and the call's parameters; a fresh cached result
// short-circuits the producer, anything else falls through to it per the
// configured staleness policy. The producer's errors pass through unchanged
// on a miss.
func Wrap[P, T any](m *cache.Manager, name string, producer Producer[P, T], opts Options) Producer[P, T] {
	keyer := opts.Keyer
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	ttl := opts.TTL
	if ttl == "" {
		ttl = DefaultTTL
	}
	copts := cache.Options{
		TTL:                  ttl,
		MaxStale:             opts.MaxStale,
		StaleWhileRevalidate: opts.StaleWhileRevalidate,
		Tags:                 opts.Tags,
	}

	return func(ctx context.Context, params P) (T, error) {
		key, err := keyer.Key(name, params)
		if err != nil {
			var zero T
			return zero, err
		}
		v, _, err := cache.Fetch(ctx, m, key, func(ctx context.Context) (T, error) {
			return producer(ctx, params)
		}, copts)
		return v, err
	}
}
