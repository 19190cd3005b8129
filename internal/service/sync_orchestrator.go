package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
)

// AuthTokenResolver resolves the access token used for one sync job
type AuthTokenResolver interface {
	ResolveAuthToken(ctx context.Context, userID, organizationID, integrationConfigID string) (string, error)
}

// RecordStore maps and persists portfolio records
type RecordStore interface {
	UpsertClient(ctx context.Context, record ClientRecord, integrationConfigID, organizationID, userID string) (string, error)
	UpsertAccount(ctx context.Context, record AccountRecord, internalClientID, integrationConfigID string) (string, error)
	BulkStoreValuationHistory(ctx context.Context, clientID string, points []ValuationPoint, integrationConfigID string) (int, error)
	FindClientByExternalID(ctx context.Context, organizationID, externalID string) (string, error)
	ListClientsWithExternalID(ctx context.Context, organizationID string) ([]models.Client, error)
}

// JobUpdater applies progress changes to a stored sync job
type JobUpdater interface {
	Update(id string, fn func(job *models.SyncJob) error) (models.SyncJob, error)
}

// SyncOrchestrator runs the client, account and AUM-history phases of a sync
// job. Phases run strictly in order because accounts and history are keyed
// by the client external ids stored in the first phase.
type SyncOrchestrator struct {
	tokens    AuthTokenResolver
	portfolio PortfolioClient
	records   RecordStore
	jobs      JobUpdater
	logger    *logrus.Logger
}

func NewSyncOrchestrator(
	tokens AuthTokenResolver,
	portfolio PortfolioClient,
	records RecordStore,
	jobs JobUpdater,
	logger *logrus.Logger,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		tokens:    tokens,
		portfolio: portfolio,
		records:   records,
		jobs:      jobs,
		logger:    logger,
	}
}

// Sync runs all three phases for the job. A returned error is phase-fatal:
// the remaining phases were skipped. Record-level failures only show up in
// the job's progress counters.
func (o *SyncOrchestrator) Sync(ctx context.Context, job models.SyncJob) error {
	log := o.logger.WithFields(logrus.Fields{
		"job_id":          job.ID,
		"organization_id": job.OrganizationID,
	})

	token, err := o.tokens.ResolveAuthToken(ctx, job.UserID, job.OrganizationID, job.IntegrationConfigID)
	if err != nil {
		return fmt.Errorf("failed to resolve auth token: %w", err)
	}

	if err := o.syncClients(ctx, job, token, log); err != nil {
		return err
	}
	if err := o.syncAccounts(ctx, job, token, log); err != nil {
		return err
	}
	return o.syncAumHistory(ctx, job, token, log)
}

func (o *SyncOrchestrator) syncClients(ctx context.Context, job models.SyncJob, token string, log *logrus.Entry) error {
	clients, err := o.portfolio.ListClients(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}
	if err := o.setTotal(job.ID, models.EntityClients, len(clients)); err != nil {
		return err
	}
	log.Infof("Syncing %d clients", len(clients))

	for _, record := range clients {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync interrupted: %w", err)
		}
		_, upsertErr := o.records.UpsertClient(ctx, record, job.IntegrationConfigID, job.OrganizationID, job.UserID)
		if upsertErr != nil {
			o.logRecordFailure(log, models.EntityClients, record.ID, upsertErr)
		}
		if err := o.recordResult(job.ID, models.EntityClients, upsertErr == nil); err != nil {
			return err
		}
	}
	return nil
}

func (o *SyncOrchestrator) syncAccounts(ctx context.Context, job models.SyncJob, token string, log *logrus.Entry) error {
	accounts, err := o.portfolio.ListAccounts(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if err := o.setTotal(job.ID, models.EntityAccounts, len(accounts)); err != nil {
		return err
	}
	log.Infof("Syncing %d accounts", len(accounts))

	for _, record := range accounts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync interrupted: %w", err)
		}
		syncErr := o.syncAccount(ctx, job, record)
		if syncErr != nil {
			o.logRecordFailure(log.WithField("client_external_id", record.ClientID), models.EntityAccounts, record.ID, syncErr)
		}
		if err := o.recordResult(job.ID, models.EntityAccounts, syncErr == nil); err != nil {
			return err
		}
	}
	return nil
}

func (o *SyncOrchestrator) syncAccount(ctx context.Context, job models.SyncJob, record AccountRecord) error {
	if record.ClientID == "" {
		return errors.New("account record missing client id")
	}

	clientID, err := o.records.FindClientByExternalID(ctx, job.OrganizationID, record.ClientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return fmt.Errorf("no synced client for external id %s: %w", record.ClientID, err)
		}
		return fmt.Errorf("failed to look up client: %w", err)
	}

	_, err = o.records.UpsertAccount(ctx, record, clientID, job.IntegrationConfigID)
	return err
}

func (o *SyncOrchestrator) syncAumHistory(ctx context.Context, job models.SyncJob, token string, log *logrus.Entry) error {
	clients, err := o.records.ListClientsWithExternalID(ctx, job.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to load synced clients: %w", err)
	}
	if err := o.setTotal(job.ID, models.EntityAumHistory, len(clients)); err != nil {
		return err
	}
	log.Infof("Syncing AUM history for %d clients", len(clients))

	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync interrupted: %w", err)
		}
		externalID := ""
		if client.ExternalID != nil {
			externalID = *client.ExternalID
		}

		syncErr := o.syncClientHistory(ctx, job, token, client.ID, externalID)
		if syncErr != nil {
			o.logRecordFailure(log, models.EntityAumHistory, externalID, syncErr)
		}
		if err := o.recordResult(job.ID, models.EntityAumHistory, syncErr == nil); err != nil {
			return err
		}
	}
	return nil
}

func (o *SyncOrchestrator) syncClientHistory(ctx context.Context, job models.SyncJob, token, clientID, externalID string) error {
	points, err := o.portfolio.FetchValuationHistory(ctx, token, externalID)
	if err != nil {
		return fmt.Errorf("failed to fetch valuation history: %w", err)
	}

	_, err = o.records.BulkStoreValuationHistory(ctx, clientID, points, job.IntegrationConfigID)
	return err
}

func (o *SyncOrchestrator) setTotal(jobID string, entity models.SyncEntity, total int) error {
	_, err := o.jobs.Update(jobID, func(job *models.SyncJob) error {
		job.Progress.For(entity).Total = total
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record %s total: %w", entity, err)
	}
	return nil
}

func (o *SyncOrchestrator) recordResult(jobID string, entity models.SyncEntity, ok bool) error {
	_, err := o.jobs.Update(jobID, func(job *models.SyncJob) error {
		progress := job.Progress.For(entity)
		if progress.Done() >= progress.Total {
			return fmt.Errorf("%s progress already at total %d", entity, progress.Total)
		}
		if ok {
			progress.Processed++
		} else {
			progress.Failed++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record %s progress: %w", entity, err)
	}
	return nil
}

func (o *SyncOrchestrator) logRecordFailure(log *logrus.Entry, entity models.SyncEntity, externalID string, err error) {
	log.WithFields(logrus.Fields{
		"phase":       entity,
		"external_id": externalID,
	}).WithError(err).Warn("Failed to sync record")
}
