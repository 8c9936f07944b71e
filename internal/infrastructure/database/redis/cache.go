package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clearlens/resolve/internal/domain/quality"
	"github.com/clearlens/resolve/pkg/errors"
)

// QualityCache keeps the most recent run's quality report available to
// dashboards and collaborators without a database round trip.  The cache is
// advisory: a miss just means no run has completed within the TTL.
type QualityCache struct {
	client *Client
	ttl    time.Duration
}

// NewQualityCache creates a cache with the given report TTL.  Zero means
// reports never expire.
func NewQualityCache(client *Client, ttl time.Duration) *QualityCache {
	return &QualityCache{client: client, ttl: ttl}
}

func (c *QualityCache) key() string {
	return c.client.Key("quality", "latest")
}

// Put stores the report as the latest.
func (c *QualityCache) Put(ctx context.Context, report quality.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "marshalling quality report failed")
	}
	if err := c.client.Underlying().Set(ctx, c.key(), payload, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "caching quality report failed")
	}
	return nil
}

// Latest returns the most recent cached report, or CodeNotFound when no
// report is cached.
func (c *QualityCache) Latest(ctx context.Context) (quality.Report, error) {
	payload, err := c.client.Underlying().Get(ctx, c.key()).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return quality.Report{}, errors.NotFound("no cached quality report")
	}
	if err != nil {
		return quality.Report{}, errors.Wrap(err, errors.CodeCacheError, "reading cached quality report failed")
	}

	var report quality.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return quality.Report{}, errors.Wrap(err, errors.CodeSerialization, "unmarshalling quality report failed")
	}
	return report, nil
}
