package models

import "time"

// SyncJobCompletedEvent is published when a sync job reaches a terminal status
type SyncJobCompletedEvent struct {
	EventID        string        `json:"event_id"`
	JobID          string        `json:"job_id"`
	UserID         string        `json:"user_id"`
	OrganizationID string        `json:"organization_id"`
	Status         SyncJobStatus `json:"status"`
	Error          *string       `json:"error,omitempty"`
	Progress       SyncProgress  `json:"progress"`
	CompletedAt    int64         `json:"completed_at"`
}

// NewSyncJobCompletedEvent builds the event for a terminal job
func NewSyncJobCompletedEvent(eventID string, job SyncJob) SyncJobCompletedEvent {
	var completedAt int64
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.Unix()
	} else {
		completedAt = time.Now().Unix()
	}
	return SyncJobCompletedEvent{
		EventID:        eventID,
		JobID:          job.ID,
		UserID:         job.UserID,
		OrganizationID: job.OrganizationID,
		Status:         job.Status,
		Error:          job.Error,
		Progress:       job.Progress,
		CompletedAt:    completedAt,
	}
}
