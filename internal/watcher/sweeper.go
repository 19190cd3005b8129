package watcher

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/vipul43/portfolio-sync-worker/internal/jobstore"
)

const (
	DefaultRetentionKeep     = 10
	DefaultRetentionSchedule = "@every 1h"
)

// Sweeper trims the job history to the most recent records per user
type Sweeper struct {
	store    jobstore.Store
	keep     int
	schedule string
	logger   *logrus.Logger
	cron     *cron.Cron
}

func NewSweeper(store jobstore.Store, keep int, schedule string, logger *logrus.Logger) *Sweeper {
	if keep <= 0 {
		keep = DefaultRetentionKeep
	}
	if schedule == "" {
		schedule = DefaultRetentionSchedule
	}
	return &Sweeper{
		store:    store,
		keep:     keep,
		schedule: schedule,
		logger:   logger,
	}
}

// Start schedules the sweep. A run still in progress causes the next tick to be skipped.
func (s *Sweeper) Start() error {
	cronLogger := cron.PrintfLogger(s.logger)
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep() }); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c

	s.logger.WithFields(logrus.Fields{
		"schedule": s.schedule,
		"keep":     s.keep,
	}).Info("Retention sweeper started")
	return nil
}

// Stop cancels the schedule and waits for a running sweep to return
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep deletes every terminal job beyond the newest keep records of its
// user. Pending and running jobs are never removed. Returns the number deleted.
func (s *Sweeper) Sweep() int {
	seen := make(map[string]int)
	removed := 0

	// List is newest first
	for _, job := range s.store.List() {
		seen[job.UserID]++
		if seen[job.UserID] <= s.keep || !job.Status.IsTerminal() {
			continue
		}
		if s.store.Delete(job.ID) {
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Retention sweep removed old sync jobs")
	}
	return removed
}
