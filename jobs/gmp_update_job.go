package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/sirupsen/logrus"
)

// ErrJobBusy is returned when a manual trigger overlaps a scheduled run.
var ErrJobBusy = errors.New("job already running")

// GMPUpdater refreshes grey market premiums. *services.GMPService implements it.
type GMPUpdater interface {
	UpdateGMP(ctx context.Context) (services.GMPUpdateStats, error)
}

// GMPUpdateJob scrapes grey market premiums onto tracked IPOs.
type GMPUpdateJob struct {
	updater GMPUpdater
	running atomic.Bool
}

func NewGMPUpdateJob(updater GMPUpdater) *GMPUpdateJob {
	return &GMPUpdateJob{updater: updater}
}

func (j *GMPUpdateJob) Name() string { return "gmp_update" }

func (j *GMPUpdateJob) Run(ctx context.Context) error {
	_, err := j.Update(ctx)
	return err
}

// Update is Run for callers that want the counts
func (j *GMPUpdateJob) Update(ctx context.Context) (services.GMPUpdateStats, error) {
	logger := logrus.WithField("component", "GMPUpdateJob")
	if !j.running.CompareAndSwap(false, true) {
		logger.Warn("GMP update job already running, skipping")
		return services.GMPUpdateStats{}, ErrJobBusy
	}
	defer j.running.Store(false)

	startTime := time.Now()
	stats, err := j.updater.UpdateGMP(ctx)
	if err != nil {
		logger.WithError(err).Error("GMP update job failed")
		return stats, err
	}

	if stats.Rows == 0 {
		logger.Warn("GMP update job: no GMP rows fetched from source")
	}
	logger.WithFields(logrus.Fields{
		"rows":            stats.Rows,
		"updated":         stats.Updated,
		"processing_time": time.Since(startTime),
	}).Info("GMP update job completed")
	return stats, nil
}

func (j *GMPUpdateJob) IsRunning() bool {
	return j.running.Load()
}
