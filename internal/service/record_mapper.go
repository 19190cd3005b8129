package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
	"github.com/vipul43/portfolio-sync-worker/internal/repository"
)

// ErrClientNotFound is returned when no persisted client carries the external id
var ErrClientNotFound = repository.ErrClientNotFound

const defaultCurrency = "USD"

// ClientRepository interface for dependency injection
type ClientRepository interface {
	Upsert(ctx context.Context, client *models.Client) (string, error)
	FindByExternalID(ctx context.Context, organizationID string, externalID string) (*models.Client, error)
	ListWithExternalID(ctx context.Context, organizationID string) ([]models.Client, error)
}

// FinancialAccountRepository interface for dependency injection
type FinancialAccountRepository interface {
	Upsert(ctx context.Context, account *models.FinancialAccount) (string, error)
}

// AumSnapshotRepository interface for dependency injection
type AumSnapshotRepository interface {
	BulkUpsert(ctx context.Context, snapshots []models.AumSnapshot) (int, error)
}

// RecordMapper converts portfolio platform records into the internal schema
// and stores them
type RecordMapper struct {
	clients   ClientRepository
	accounts  FinancialAccountRepository
	snapshots AumSnapshotRepository
}

func NewRecordMapper(clients ClientRepository, accounts FinancialAccountRepository, snapshots AumSnapshotRepository) *RecordMapper {
	return &RecordMapper{
		clients:   clients,
		accounts:  accounts,
		snapshots: snapshots,
	}
}

// UpsertClient maps and stores one client record, returning its internal id
func (m *RecordMapper) UpsertClient(ctx context.Context, record ClientRecord, integrationConfigID, organizationID, userID string) (string, error) {
	client, err := mapClient(record, integrationConfigID, organizationID, userID)
	if err != nil {
		return "", err
	}

	id, err := m.clients.Upsert(ctx, &client)
	if err != nil {
		return "", fmt.Errorf("failed to store client: %w", err)
	}
	return id, nil
}

// UpsertAccount maps and stores one account record for an already stored client
func (m *RecordMapper) UpsertAccount(ctx context.Context, record AccountRecord, internalClientID, integrationConfigID string) (string, error) {
	account, err := mapAccount(record, internalClientID, integrationConfigID)
	if err != nil {
		return "", err
	}

	id, err := m.accounts.Upsert(ctx, &account)
	if err != nil {
		return "", fmt.Errorf("failed to store account: %w", err)
	}
	return id, nil
}

// BulkStoreValuationHistory stores a client's valuation history in one batch
// and returns how many points were written
func (m *RecordMapper) BulkStoreValuationHistory(ctx context.Context, clientID string, points []ValuationPoint, integrationConfigID string) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	// one snapshot per day; a later point for the same day replaces the earlier one
	snapshots := make([]models.AumSnapshot, 0, len(points))
	byDate := make(map[string]int, len(points))
	for _, point := range points {
		asOf, err := parseValuationDate(point.Date)
		if err != nil {
			return 0, err
		}
		currency := point.Currency
		if currency == "" {
			currency = defaultCurrency
		}
		snapshot := models.AumSnapshot{
			ID:                  uuid.New().String(),
			ClientID:            clientID,
			IntegrationConfigID: integrationConfigID,
			AsOfDate:            asOf,
			MarketValue:         point.MarketValue,
			Currency:            currency,
		}
		day := asOf.Format("2006-01-02")
		if i, seen := byDate[day]; seen {
			snapshots[i] = snapshot
			continue
		}
		byDate[day] = len(snapshots)
		snapshots = append(snapshots, snapshot)
	}

	inserted, err := m.snapshots.BulkUpsert(ctx, snapshots)
	if err != nil {
		return 0, fmt.Errorf("failed to store valuation history: %w", err)
	}
	return inserted, nil
}

// FindClientByExternalID returns the internal id of the client imported with
// the given external id
func (m *RecordMapper) FindClientByExternalID(ctx context.Context, organizationID, externalID string) (string, error) {
	client, err := m.clients.FindByExternalID(ctx, organizationID, externalID)
	if err != nil {
		return "", err
	}
	return client.ID, nil
}

// ListClientsWithExternalID returns the organization's clients that can be
// matched against the portfolio platform
func (m *RecordMapper) ListClientsWithExternalID(ctx context.Context, organizationID string) ([]models.Client, error) {
	return m.clients.ListWithExternalID(ctx, organizationID)
}

func mapClient(record ClientRecord, integrationConfigID, organizationID, userID string) (models.Client, error) {
	firstName := strings.TrimSpace(record.FirstName)
	lastName := strings.TrimSpace(record.LastName)
	if firstName == "" && lastName == "" {
		firstName, lastName = splitDisplayName(record.DisplayName)
	}
	if firstName == "" && lastName == "" {
		return models.Client{}, errors.New("client record missing name")
	}

	externalID := strings.TrimSpace(record.ID)

	metadata := models.JSONB{}
	for k, v := range record.Metadata {
		metadata[k] = v
	}
	if record.HouseholdID != "" {
		metadata["householdId"] = record.HouseholdID
	}

	client := models.Client{
		ID:                  uuid.New().String(),
		OrganizationID:      organizationID,
		UserID:              userID,
		IntegrationConfigID: integrationConfigID,
		SourceKey:           externalID,
		ExternalID:          stringPtr(externalID),
		FirstName:           firstName,
		LastName:            lastName,
		Email:               stringPtr(strings.TrimSpace(record.Email)),
		Phone:               stringPtr(strings.TrimSpace(record.Phone)),
		Metadata:            metadata,
	}
	if client.SourceKey == "" {
		client.SourceKey = client.NameKey()
	}
	return client, nil
}

func mapAccount(record AccountRecord, internalClientID, integrationConfigID string) (models.FinancialAccount, error) {
	if strings.TrimSpace(record.ID) == "" {
		return models.FinancialAccount{}, errors.New("account record missing id")
	}

	name := strings.TrimSpace(record.Name)
	if name == "" {
		name = strings.TrimSpace(record.Number)
	}
	if name == "" {
		name = "Account " + record.ID
	}

	var marketValue float64
	if record.MarketValue != nil {
		marketValue = *record.MarketValue
	}
	currency := record.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	return models.FinancialAccount{
		ID:                  uuid.New().String(),
		ClientID:            internalClientID,
		IntegrationConfigID: integrationConfigID,
		ExternalID:          record.ID,
		Name:                name,
		AccountNumber:       stringPtr(record.Number),
		AccountType:         stringPtr(record.Type),
		Custodian:           stringPtr(record.Custodian),
		MarketValue:         marketValue,
		Currency:            currency,
		Metadata:            models.JSONB(record.Metadata),
	}, nil
}

// splitDisplayName splits "First Last" into its parts; single words become the last name
func splitDisplayName(displayName string) (string, string) {
	parts := strings.Fields(displayName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// parseValuationDate accepts plain dates and RFC 3339 timestamps
func parseValuationDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Truncate(24 * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse valuation date: %q", value)
}

// Helper function for pointer conversion
func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
