package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/sirupsen/logrus"
)

// NewsUpdater ingests feed items. *services.NewsService implements it.
type NewsUpdater interface {
	UpdateNews(ctx context.Context) (services.NewsUpdateStats, error)
}

// NewsUpdateJob attaches new feed articles to tracked IPOs.
type NewsUpdateJob struct {
	updater NewsUpdater
	running atomic.Bool
}

func NewNewsUpdateJob(updater NewsUpdater) *NewsUpdateJob {
	return &NewsUpdateJob{updater: updater}
}

func (j *NewsUpdateJob) Name() string { return "news_update" }

func (j *NewsUpdateJob) Run(ctx context.Context) error {
	_, err := j.Update(ctx)
	return err
}

func (j *NewsUpdateJob) Update(ctx context.Context) (services.NewsUpdateStats, error) {
	logger := logrus.WithField("component", "NewsUpdateJob")
	if !j.running.CompareAndSwap(false, true) {
		logger.Warn("News update job already running, skipping")
		return services.NewsUpdateStats{}, ErrJobBusy
	}
	defer j.running.Store(false)

	startTime := time.Now()
	stats, err := j.updater.UpdateNews(ctx)
	if err != nil {
		logger.WithError(err).Error("News update job failed")
		return stats, err
	}

	processingTime := time.Since(startTime)
	logger.WithFields(logrus.Fields{
		"feeds":           stats.Feeds,
		"items":           stats.Items,
		"inserted":        stats.Inserted,
		"processing_time": processingTime,
	}).Info("News update job completed")
	return stats, nil
}

func (j *NewsUpdateJob) IsRunning() bool {
	return j.running.Load()
}
