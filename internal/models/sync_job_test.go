package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncJobStatus_Constants(t *testing.T) {
	tests := []struct {
		name     string
		status   SyncJobStatus
		expected string
	}{
		{"pending", SyncStatusPending, "pending"},
		{"running", SyncStatusRunning, "running"},
		{"completed", SyncStatusCompleted, "completed"},
		{"failed", SyncStatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to SyncJobStatus
		expected bool
	}{
		{SyncStatusPending, SyncStatusRunning, true},
		{SyncStatusRunning, SyncStatusCompleted, true},
		{SyncStatusRunning, SyncStatusFailed, true},
		{SyncStatusPending, SyncStatusCompleted, false},
		{SyncStatusPending, SyncStatusFailed, false},
		{SyncStatusRunning, SyncStatusPending, false},
		{SyncStatusCompleted, SyncStatusRunning, false},
		{SyncStatusCompleted, SyncStatusFailed, false},
		{SyncStatusFailed, SyncStatusCompleted, false},
		{SyncStatusFailed, SyncStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, CanTransition(tt.from, tt.to))
		})
	}
}

func TestNewSyncJob(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := NewSyncJob("user-1", "org-1", "cfg-1", now)

	assert.Equal(t, NewSyncJobID("user-1", "org-1", now), job.ID)
	assert.Contains(t, job.ID, "user-1")
	assert.Contains(t, job.ID, "org-1")
	assert.Equal(t, SyncStatusPending, job.Status)
	assert.Equal(t, now, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
	assert.Nil(t, job.Error)
	assert.Equal(t, SyncProgress{}, job.Progress)
}

func TestNewSyncJobID_DiffersByTimestamp(t *testing.T) {
	now := time.Now()
	assert.NotEqual(t,
		NewSyncJobID("user-1", "org-1", now),
		NewSyncJobID("user-1", "org-1", now.Add(time.Nanosecond)))
}

func TestSyncJob_Transition_Completed(t *testing.T) {
	now := time.Now()
	job := NewSyncJob("user-1", "org-1", "cfg-1", now)

	require.NoError(t, job.Transition(SyncStatusRunning, now, nil))
	assert.Nil(t, job.CompletedAt)

	done := now.Add(time.Minute)
	require.NoError(t, job.Transition(SyncStatusCompleted, done, nil))
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, done, *job.CompletedAt)
	assert.Nil(t, job.Error)
}

func TestSyncJob_Transition_Failed(t *testing.T) {
	now := time.Now()
	job := NewSyncJob("user-1", "org-1", "cfg-1", now)
	require.NoError(t, job.Transition(SyncStatusRunning, now, nil))

	require.NoError(t, job.Transition(SyncStatusFailed, now, errors.New("network unreachable")))
	require.NotNil(t, job.Error)
	assert.Equal(t, "network unreachable", *job.Error)
	assert.NotNil(t, job.CompletedAt)
}

func TestSyncJob_Transition_RejectsRegression(t *testing.T) {
	now := time.Now()
	job := NewSyncJob("user-1", "org-1", "cfg-1", now)
	require.NoError(t, job.Transition(SyncStatusRunning, now, nil))
	require.NoError(t, job.Transition(SyncStatusCompleted, now, nil))
	completedAt := *job.CompletedAt

	err := job.Transition(SyncStatusFailed, now.Add(time.Hour), errors.New("late"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, SyncStatusCompleted, job.Status)
	assert.Equal(t, completedAt, *job.CompletedAt)
	assert.Nil(t, job.Error)
}

func TestSyncProgress_For(t *testing.T) {
	var progress SyncProgress
	progress.For(EntityClients).Total = 3
	progress.For(EntityAccounts).Processed = 2
	progress.For(EntityAumHistory).Failed = 1

	assert.Equal(t, 3, progress.Clients.Total)
	assert.Equal(t, 2, progress.Accounts.Processed)
	assert.Equal(t, 1, progress.AumHistory.Failed)
	assert.Nil(t, progress.For(SyncEntity("households")))
	assert.Equal(t, 1, progress.AumHistory.Done())
}

func TestNewSyncJobCompletedEvent(t *testing.T) {
	now := time.Unix(1700000000, 0)
	job := NewSyncJob("user-1", "org-1", "cfg-1", now)
	require.NoError(t, job.Transition(SyncStatusRunning, now, nil))
	require.NoError(t, job.Transition(SyncStatusCompleted, now, nil))
	job.Progress.Clients = EntityProgress{Total: 3, Processed: 3}

	event := NewSyncJobCompletedEvent("evt-1", job)
	assert.Equal(t, "evt-1", event.EventID)
	assert.Equal(t, job.ID, event.JobID)
	assert.Equal(t, SyncStatusCompleted, event.Status)
	assert.Equal(t, int64(1700000000), event.CompletedAt)
	assert.Equal(t, 3, event.Progress.Clients.Processed)
}
