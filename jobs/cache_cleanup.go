package jobs

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ExpiringCache drops expired entries. *services.CacheService implements it.
type ExpiringCache interface {
	CleanupExpired() int
	Size() int
}

// CacheCleanupJob sweeps expired entries from the in-memory listing cache.
type CacheCleanupJob struct {
	cache ExpiringCache
}

func NewCacheCleanupJob(cache ExpiringCache) *CacheCleanupJob {
	return &CacheCleanupJob{cache: cache}
}

func (j *CacheCleanupJob) Name() string { return "cache_cleanup" }

func (j *CacheCleanupJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	removed := j.cache.CleanupExpired()
	logrus.WithFields(logrus.Fields{
		"component": "CacheCleanupJob",
		"removed":   removed,
		"remaining": j.cache.Size(),
	}).Info("Cache cleanup completed")
	return nil
}
