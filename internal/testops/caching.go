package testops

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/testopsbot/internal/cache"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

// CachingClient decorates a Client with a read-through cache for job
// parameter schemas. Every other call goes straight to the wrapped Client.
// Cache failures are logged and fall through to the remote call.
type CachingClient struct {
	Client
	cache cache.Cache
	ttl   time.Duration
}

// NewCachingClient wraps next so that GetJobDetails results live in c for ttl.
func NewCachingClient(next Client, c cache.Cache, ttl time.Duration) *CachingClient {
	return &CachingClient{Client: next, cache: c, ttl: ttl}
}

func (c *CachingClient) GetJobDetails(ctx context.Context, jobID int64) (*models.JobDetails, error) {
	key := cache.JobDetailsKey(jobID)

	data, found, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		slog.Warn("job details cache read failed", "job_id", jobID, "error", err)
	case found:
		var details models.JobDetails
		if err := json.Unmarshal(data, &details); err == nil {
			return &details, nil
		}
		slog.Warn("discarding corrupt job details cache entry", "job_id", jobID)
	}

	details, err := c.Client.GetJobDetails(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(details); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			slog.Warn("job details cache write failed", "job_id", jobID, "error", err)
		}
	}
	return details, nil
}

var _ Client = (*CachingClient)(nil)
