package track

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/MatFrancois/opotopo/internal/shared/fetch"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/time/rate"
)

// Fetcher downloads track files through the proxy and parses them. Remote
// calls share one rate limiter; parsed results go to the cache.
type Fetcher struct {
	client  *http.Client
	proxy   string
	limiter *rate.Limiter
	cache   *Cache
}

func NewFetcher(client *http.Client, proxy string, rps float64, cache *Cache) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &Fetcher{
		client:  client,
		proxy:   proxy,
		limiter: rate.NewLimiter(limit, burst),
		cache:   cache,
	}
}

// Load returns the line features of the track at rawURL.
func (f *Fetcher) Load(ctx context.Context, rawURL string) (*geojson.FeatureCollection, error) {
	if data, ok, err := f.cache.Get(ctx, rawURL); err != nil {
		log.Printf("track cache read %s: %v", rawURL, err)
	} else if ok {
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err == nil {
			return fc, nil
		}
		log.Printf("track cache entry %s unreadable: %v", rawURL, err)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := fetch.Get(ctx, f.client, ProxyURL(f.proxy, rawURL))
	if err != nil {
		return nil, fmt.Errorf("fetch track %s: %w", rawURL, err)
	}
	fc, err := Parse(FormatOf(rawURL), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse track %s: %w", rawURL, err)
	}

	if data, err := fc.MarshalJSON(); err == nil {
		if err := f.cache.Set(ctx, rawURL, data); err != nil {
			log.Printf("track cache write %s: %v", rawURL, err)
		}
	}
	return fc, nil
}
