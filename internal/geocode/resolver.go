package geocode

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"backend-tripline/internal/shared/geo"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "geo:"

// cacheEntry is the JSON stored under geo:<city> in redis. Exactly one shape
// is valid at a time: a coordinate (FailUntil zero) or a failure marker
// (FailUntil set, coordinates meaningless).
type cacheEntry struct {
	Lat       float64 `json:"lat,omitempty"`
	Lng       float64 `json:"lng,omitempty"`
	FailUntil int64   `json:"fail_until,omitempty"`
}

// Resolver memoizes city-name lookups. Successful coordinates are kept in an
// in-memory map and written through to redis without expiry; failed lookups
// leave a marker in redis that suppresses live lookups until it ages out.
// Concurrent lookups for the same city share a single in-flight call.
type Resolver struct {
	provider Provider
	redis    *redis.Client
	failTTL  time.Duration

	mu    sync.RWMutex
	mem   map[string]geo.Coordinate
	group singleflight.Group

	now func() time.Time
}

func NewResolver(provider Provider, redisClient *redis.Client, failTTL time.Duration) *Resolver {
	return &Resolver{
		provider: provider,
		redis:    redisClient,
		failTTL:  failTTL,
		mem:      map[string]geo.Coordinate{},
		now:      time.Now,
	}
}

// Resolve returns the coordinate for a city name, or ok=false when the city
// cannot be resolved right now. Lookup failures are never surfaced as errors;
// they degrade to a cached miss.
func (r *Resolver) Resolve(ctx context.Context, city string) (geo.Coordinate, bool) {
	key := normalizeCity(city)
	if key == "" {
		return geo.Coordinate{}, false
	}

	r.mu.RLock()
	coord, ok := r.mem[key]
	r.mu.RUnlock()
	if ok {
		return coord, true
	}

	v, _, _ := r.group.Do(key, func() (interface{}, error) {
		return r.resolveSlow(ctx, key, city), nil
	})
	if c, ok := v.(geo.Coordinate); ok {
		return c, true
	}
	return geo.Coordinate{}, false
}

// resolveSlow checks redis, then performs a live lookup. Returns a
// geo.Coordinate on success or nil on a miss.
func (r *Resolver) resolveSlow(ctx context.Context, key, city string) interface{} {
	// Another caller may have landed the coordinate while we waited on the
	// singleflight lock.
	r.mu.RLock()
	coord, ok := r.mem[key]
	r.mu.RUnlock()
	if ok {
		return coord
	}

	if entry, ok := r.loadEntry(ctx, key); ok {
		if entry.FailUntil > 0 {
			if r.now().UnixMilli() < entry.FailUntil {
				return nil
			}
			// Marker expired; a fresh lookup is permitted.
		} else {
			coord := geo.Coordinate{Lat: entry.Lat, Lng: entry.Lng}
			r.remember(key, coord)
			return coord
		}
	}

	result, err := r.provider.Forward(ctx, city)
	if err != nil {
		if err != ErrNotFound {
			log.Printf("geocode lookup for %q failed: %v", city, err)
		}
		r.storeFailure(ctx, key)
		return nil
	}

	coord = geo.Coordinate{Lat: result.Lat, Lng: result.Lng}
	r.remember(key, coord)
	r.storeSuccess(ctx, key, coord)
	return coord
}

func (r *Resolver) remember(key string, coord geo.Coordinate) {
	r.mu.Lock()
	r.mem[key] = coord
	r.mu.Unlock()
}

func (r *Resolver) loadEntry(ctx context.Context, key string) (cacheEntry, bool) {
	if r.redis == nil {
		return cacheEntry{}, false
	}
	raw, err := r.redis.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return cacheEntry{}, false
	}
	return entry, true
}

func (r *Resolver) storeSuccess(ctx context.Context, key string, coord geo.Coordinate) {
	if r.redis == nil {
		return
	}
	payload, _ := json.Marshal(cacheEntry{Lat: coord.Lat, Lng: coord.Lng})
	if err := r.redis.Set(ctx, keyPrefix+key, payload, 0).Err(); err != nil {
		log.Printf("geocode cache write error: %v", err)
	}
}

func (r *Resolver) storeFailure(ctx context.Context, key string) {
	if r.redis == nil {
		return
	}
	payload, _ := json.Marshal(cacheEntry{FailUntil: r.now().Add(r.failTTL).UnixMilli()})
	if err := r.redis.Set(ctx, keyPrefix+key, payload, 0).Err(); err != nil {
		log.Printf("geocode cache write error: %v", err)
	}
}

func normalizeCity(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), " ")
}
