package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/TomiHiltunen/geohash-golang"
	"github.com/dmitrijs2005/canvasser/internal/generator"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/normalize"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "canvasser:lookup:"
	// geohash precision 6 cells are about 1.2km x 0.6km, finer than the
	// street search radius.
	geohashPrecision = 6
)

// CachedLookup decorates a CityLookup with a Redis cache. Cache failures are
// logged and the wrapped lookup is used instead.
type CachedLookup struct {
	next   generator.CityLookup
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logging.Logger
}

func NewCachedLookup(next generator.CityLookup, rdb redis.Cmdable, ttl time.Duration, logger logging.Logger) *CachedLookup {
	return &CachedLookup{next: next, rdb: rdb, ttl: ttl, logger: logger.With("module", "lookup-cache")}
}

func cityKey(query string) string {
	return keyPrefix + "city:" + normalize.City(query)
}

func streetsKey(at models.Coordinates) string {
	return keyPrefix + "streets:" + geohash.EncodeWithPrecision(at.Lat, at.Lon, geohashPrecision)
}

func (c *CachedLookup) Resolve(ctx context.Context, query string) (models.Coordinates, error) {
	key := cityKey(query)
	var at models.Coordinates
	if c.get(ctx, key, &at) {
		return at, nil
	}

	at, err := c.next.Resolve(ctx, query)
	if err != nil {
		return at, err
	}
	c.set(ctx, key, at)
	return at, nil
}

// StreetsNear caches non-empty street lists only, so an Overpass hiccup is
// not remembered for the whole TTL.
func (c *CachedLookup) StreetsNear(ctx context.Context, at models.Coordinates) ([]string, error) {
	key := streetsKey(at)
	var streets []string
	if c.get(ctx, key, &streets) {
		return streets, nil
	}

	streets, err := c.next.StreetsNear(ctx, at)
	if err != nil {
		return nil, err
	}
	if len(streets) > 0 {
		c.set(ctx, key, streets)
	}
	return streets, nil
}

func (c *CachedLookup) get(ctx context.Context, key string, out any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn(ctx, "cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn(ctx, "dropping undecodable cache entry", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *CachedLookup) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
}
