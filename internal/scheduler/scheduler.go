package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/gridpulse/dsmrflow/internal/api"
)

type Scheduler struct {
	ctx      context.Context
	fetcher  *api.StreamFetcher
	logger   *logrus.Logger
	cron     *cron.Cron
	schedule string
}

func NewScheduler(ctx context.Context, fetcher *api.StreamFetcher, logger *logrus.Logger, schedule string) *Scheduler {
	return &Scheduler{
		ctx:      ctx,
		fetcher:  fetcher,
		logger:   logger,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start registers the periodic fetch and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.collect)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// collect pulls the bridge stream and stores the projections
func (s *Scheduler) collect() {
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Minute)
	defer cancel()

	if err := s.fetcher.FetchOnce(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to fetch telegram stream")
	}
}

// Stop the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
