package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("invalid sync job status transition")

type SyncJobStatus string

const (
	SyncStatusPending   SyncJobStatus = "pending"
	SyncStatusRunning   SyncJobStatus = "running"
	SyncStatusCompleted SyncJobStatus = "completed"
	SyncStatusFailed    SyncJobStatus = "failed"
)

func (s SyncJobStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed from s
func (s SyncJobStatus) IsTerminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

var validTransitions = map[SyncJobStatus][]SyncJobStatus{
	SyncStatusPending: {SyncStatusRunning},
	SyncStatusRunning: {SyncStatusCompleted, SyncStatusFailed},
}

// CanTransition reports whether a job may move from one status to another
func CanTransition(from, to SyncJobStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SyncEntity names one of the three entity kinds synced by a job
type SyncEntity string

const (
	EntityClients    SyncEntity = "clients"
	EntityAccounts   SyncEntity = "accounts"
	EntityAumHistory SyncEntity = "aum_history"
)

// EntityProgress counts the records of one entity kind handled by a job.
// Total stays 0 until the phase has fetched its source list.
type EntityProgress struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Done returns how many records have been handled, successfully or not
func (p EntityProgress) Done() int {
	return p.Processed + p.Failed
}

type SyncProgress struct {
	Clients    EntityProgress `json:"clients"`
	Accounts   EntityProgress `json:"accounts"`
	AumHistory EntityProgress `json:"aumHistory"`
}

// For returns the counters for the given entity, or nil for an unknown entity
func (p *SyncProgress) For(entity SyncEntity) *EntityProgress {
	switch entity {
	case EntityClients:
		return &p.Clients
	case EntityAccounts:
		return &p.Accounts
	case EntityAumHistory:
		return &p.AumHistory
	}
	return nil
}

// SyncJob is the in-process record of one integration sync run
type SyncJob struct {
	ID                  string        `json:"id"`
	UserID              string        `json:"userId"`
	OrganizationID      string        `json:"organizationId"`
	IntegrationConfigID string        `json:"integrationConfigId"`
	Status              SyncJobStatus `json:"status"`
	Progress            SyncProgress  `json:"progress"`
	StartedAt           time.Time     `json:"startedAt"`
	CompletedAt         *time.Time    `json:"completedAt,omitempty"`
	Error               *string       `json:"error,omitempty"`
}

// NewSyncJob creates a pending job owned by the given user and organization
func NewSyncJob(userID, organizationID, integrationConfigID string, now time.Time) SyncJob {
	return SyncJob{
		ID:                  NewSyncJobID(userID, organizationID, now),
		UserID:              userID,
		OrganizationID:      organizationID,
		IntegrationConfigID: integrationConfigID,
		Status:              SyncStatusPending,
		StartedAt:           now,
	}
}

// NewSyncJobID derives a job id from its owner and creation time
func NewSyncJobID(userID, organizationID string, createdAt time.Time) string {
	return fmt.Sprintf("sync_%s_%s_%d", userID, organizationID, createdAt.UnixNano())
}

// Transition moves the job to the given status. Terminal statuses stamp
// CompletedAt; a failure records cause as the job error.
func (j *SyncJob) Transition(to SyncJobStatus, at time.Time, cause error) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}

	j.Status = to
	if to.IsTerminal() {
		completedAt := at
		j.CompletedAt = &completedAt
	}
	if to == SyncStatusFailed {
		msg := "sync failed"
		if cause != nil {
			msg = cause.Error()
		}
		j.Error = &msg
	}
	return nil
}
