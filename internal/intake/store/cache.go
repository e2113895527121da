package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"startup-intake/internal/common/logger"
	"startup-intake/internal/common/metrics"
	"startup-intake/internal/intake/policy"
	"startup-intake/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "startup:application:"

// DefaultCacheTTL applies when a non-positive TTL is configured.
const DefaultCacheTTL = 5 * time.Minute

// Cached is a read-through cache for aggregates in front of a Repository.
// Redis failures never fail a request; they fall back to the repository.
type Cached struct {
	next   Repository
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCached(next Repository, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "application-cache"}),
	}
}

func CacheKey(id int64) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, id)
}

func (c *Cached) Create(ctx context.Context, app *models.Application) (int64, error) {
	return c.next.Create(ctx, app)
}

func (c *Cached) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	key := CacheKey(id)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var app models.Application
		jsonErr := json.Unmarshal(data, &app)
		if jsonErr == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			app.AnnualAccounts = models.NormalizeAnnualAccounts(app.AnnualAccounts)
			policy.Annotate(&app)
			return &app, nil
		}
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{
			"key":   key,
			"error": jsonErr.Error(),
		})
	case errors.Is(err, redis.Nil):
	default:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	app, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(app); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return app, nil
}

func (c *Cached) Update(ctx context.Context, id int64, app *models.Application) error {
	err := c.next.Update(ctx, id, app)
	c.invalidate(ctx, id)
	return err
}

func (c *Cached) ListPage(ctx context.Context, limit, offset int, search string) (*Page, error) {
	return c.next.ListPage(ctx, limit, offset, search)
}

func (c *Cached) Delete(ctx context.Context, id int64) error {
	err := c.next.Delete(ctx, id)
	c.invalidate(ctx, id)
	return err
}

func (c *Cached) invalidate(ctx context.Context, id int64) {
	if err := c.rdb.Del(ctx, CacheKey(id)).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", map[string]interface{}{
			"applicationId": id,
			"error":         err.Error(),
		})
	}
}
