package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vipul43/portfolio-sync-worker/internal/jobstore"
	"github.com/vipul43/portfolio-sync-worker/internal/models"
)

var (
	ErrWatcherStopped = errors.New("watcher stopped")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrInvalidRequest = errors.New("invalid sync request")
)

const notifyTimeout = 10 * time.Second

// Syncer runs one sync job to completion, updating its progress as it goes
type Syncer interface {
	Sync(ctx context.Context, job models.SyncJob) error
}

// Notifier receives an event when a job reaches a terminal status
type Notifier interface {
	NotifySyncCompleted(ctx context.Context, event models.SyncJobCompletedEvent) error
}

// Watcher owns the sync job queue and the single worker that drains it.
// Jobs start in the order they were enqueued and never overlap.
type Watcher struct {
	store    jobstore.Store
	syncer   Syncer
	notifier Notifier
	logger   *logrus.Logger
	queue    *jobQueue
	now      func() time.Time
	started  atomic.Bool

	// serializes id allocation with the insert into the store
	enqueueMu sync.Mutex
}

// New creates a watcher. notifier may be nil.
func New(store jobstore.Store, syncer Syncer, notifier Notifier, logger *logrus.Logger) *Watcher {
	return &Watcher{
		store:    store,
		syncer:   syncer,
		notifier: notifier,
		logger:   logger,
		queue:    newJobQueue(),
		now:      time.Now,
	}
}

// EnqueueSync records a pending job and queues it behind any earlier ones
func (w *Watcher) EnqueueSync(ctx context.Context, userID, organizationID, integrationConfigID string) (models.SyncJob, error) {
	switch {
	case userID == "":
		return models.SyncJob{}, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	case organizationID == "":
		return models.SyncJob{}, fmt.Errorf("%w: organization id is required", ErrInvalidRequest)
	case integrationConfigID == "":
		return models.SyncJob{}, fmt.Errorf("%w: integration config id is required", ErrInvalidRequest)
	}

	w.enqueueMu.Lock()
	defer w.enqueueMu.Unlock()

	now := w.now()
	job := models.NewSyncJob(userID, organizationID, integrationConfigID, now)
	for {
		if _, exists := w.store.Get(job.ID); !exists {
			break
		}
		now = now.Add(time.Nanosecond)
		job = models.NewSyncJob(userID, organizationID, integrationConfigID, now)
	}

	w.store.Put(job)
	if !w.queue.Enqueue(job.ID) {
		w.store.Delete(job.ID)
		return models.SyncJob{}, ErrWatcherStopped
	}

	w.logger.WithFields(logrus.Fields{
		"job_id":                job.ID,
		"integration_config_id": integrationConfigID,
		"queue_length":          w.queue.Len(),
	}).Info("Sync job enqueued")
	return job, nil
}

// GetJobStatus returns a snapshot of the job record
func (w *Watcher) GetJobStatus(jobID string) (models.SyncJob, bool) {
	return w.store.Get(jobID)
}

// ListJobsForUser returns the user's job records, newest first
func (w *Watcher) ListJobsForUser(userID string) []models.SyncJob {
	return w.store.ListByUser(userID)
}

// Start runs the worker loop until ctx is cancelled or Stop is called.
// After Stop, jobs already queued are still run before Start returns nil.
// Only the first call runs the worker; later calls return ErrAlreadyStarted.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	w.logger.Info("Starting sync job watcher...")

	for {
		if err := ctx.Err(); err != nil {
			w.queue.Close()
			w.logger.WithField("pending", w.queue.Len()).Info("Watcher shutting down...")
			return err
		}

		if id, ok := w.queue.TryDequeue(); ok {
			w.processJob(ctx, id)
			continue
		}

		select {
		case <-ctx.Done():
		case _, open := <-w.queue.Wait():
			if !open && w.queue.Len() == 0 {
				w.logger.Info("Watcher stopped")
				return nil
			}
		}
	}
}

// Stop rejects new jobs. The worker exits once the queue is drained.
func (w *Watcher) Stop() {
	w.queue.Close()
}

func (w *Watcher) processJob(ctx context.Context, jobID string) {
	logger := w.logger.WithField("job_id", jobID)

	job, err := w.store.Update(jobID, func(j *models.SyncJob) error {
		return j.Transition(models.SyncStatusRunning, w.now(), nil)
	})
	if err != nil {
		logger.WithError(err).Error("Failed to start sync job")
		return
	}
	logger.WithField("integration_config_id", job.IntegrationConfigID).Info("Sync job started")

	syncErr := w.runSync(ctx, job)

	final, err := w.store.Update(jobID, func(j *models.SyncJob) error {
		if syncErr != nil {
			return j.Transition(models.SyncStatusFailed, w.now(), syncErr)
		}
		return j.Transition(models.SyncStatusCompleted, w.now(), nil)
	})
	if err != nil {
		logger.WithError(err).Error("Failed to finish sync job")
		return
	}

	fields := logrus.Fields{
		"status":      final.Status,
		"clients":     fmt.Sprintf("%d/%d", final.Progress.Clients.Processed, final.Progress.Clients.Total),
		"accounts":    fmt.Sprintf("%d/%d", final.Progress.Accounts.Processed, final.Progress.Accounts.Total),
		"aum_history": fmt.Sprintf("%d/%d", final.Progress.AumHistory.Processed, final.Progress.AumHistory.Total),
		"duration":    w.now().Sub(final.StartedAt).Round(time.Millisecond).String(),
	}
	if syncErr != nil {
		logger.WithFields(fields).WithError(syncErr).Error("Sync job failed")
	} else {
		logger.WithFields(fields).Info("Sync job completed")
	}

	w.notify(final)
}

// runSync converts a panic in the sync into a job failure so one bad job
// cannot take the worker down
func (w *Watcher) runSync(ctx context.Context, job models.SyncJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync panicked: %v", r)
		}
	}()
	return w.syncer.Sync(ctx, job)
}

func (w *Watcher) notify(job models.SyncJob) {
	if w.notifier == nil {
		return
	}

	// the worker context may already be cancelled at shutdown
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	event := models.NewSyncJobCompletedEvent(uuid.New().String(), job)
	if err := w.notifier.NotifySyncCompleted(ctx, event); err != nil {
		w.logger.WithFields(logrus.Fields{
			"job_id":   job.ID,
			"event_id": event.EventID,
		}).WithError(err).Warn("Failed to publish sync completion event")
	}
}
