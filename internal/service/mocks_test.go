package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockTokenResolver struct {
	resolveFunc func(ctx context.Context, userID, organizationID, integrationConfigID string) (string, error)
}

func (m *mockTokenResolver) ResolveAuthToken(ctx context.Context, userID, organizationID, integrationConfigID string) (string, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, userID, organizationID, integrationConfigID)
	}
	return "token", nil
}

type mockPortfolioClient struct {
	listClientsFunc           func(ctx context.Context, accessToken string) ([]ClientRecord, error)
	listAccountsFunc          func(ctx context.Context, accessToken string) ([]AccountRecord, error)
	fetchValuationHistoryFunc func(ctx context.Context, accessToken string, externalClientID string) ([]ValuationPoint, error)
}

func (m *mockPortfolioClient) ListClients(ctx context.Context, accessToken string) ([]ClientRecord, error) {
	if m.listClientsFunc != nil {
		return m.listClientsFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *mockPortfolioClient) ListAccounts(ctx context.Context, accessToken string) ([]AccountRecord, error) {
	if m.listAccountsFunc != nil {
		return m.listAccountsFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *mockPortfolioClient) FetchValuationHistory(ctx context.Context, accessToken string, externalClientID string) ([]ValuationPoint, error) {
	if m.fetchValuationHistoryFunc != nil {
		return m.fetchValuationHistoryFunc(ctx, accessToken, externalClientID)
	}
	return nil, nil
}

// memoryRecordStore is a RecordStore keeping clients in memory
type memoryRecordStore struct {
	mu              sync.Mutex
	clients         []models.Client
	accounts        map[string]string
	history         map[string]int
	upsertClientErr func(record ClientRecord) error
	bulkStoreErr    func(clientID string) error
	listClientsErr  error
}

func newMemoryRecordStore() *memoryRecordStore {
	return &memoryRecordStore{
		accounts: make(map[string]string),
		history:  make(map[string]int),
	}
}

func (s *memoryRecordStore) UpsertClient(ctx context.Context, record ClientRecord, integrationConfigID, organizationID, userID string) (string, error) {
	if s.upsertClientErr != nil {
		if err := s.upsertClientErr(record); err != nil {
			return "", err
		}
	}
	client, err := mapClient(record, integrationConfigID, organizationID, userID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append(s.clients, client)
	return client.ID, nil
}

func (s *memoryRecordStore) UpsertAccount(ctx context.Context, record AccountRecord, internalClientID, integrationConfigID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[record.ID] = internalClientID
	return "acct-" + record.ID, nil
}

func (s *memoryRecordStore) BulkStoreValuationHistory(ctx context.Context, clientID string, points []ValuationPoint, integrationConfigID string) (int, error) {
	if s.bulkStoreErr != nil {
		if err := s.bulkStoreErr(clientID); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[clientID] += len(points)
	return len(points), nil
}

func (s *memoryRecordStore) FindClientByExternalID(ctx context.Context, organizationID, externalID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, client := range s.clients {
		if client.OrganizationID == organizationID && client.ExternalID != nil && *client.ExternalID == externalID {
			return client.ID, nil
		}
	}
	return "", ErrClientNotFound
}

func (s *memoryRecordStore) ListClientsWithExternalID(ctx context.Context, organizationID string) ([]models.Client, error) {
	if s.listClientsErr != nil {
		return nil, s.listClientsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var clients []models.Client
	for _, client := range s.clients {
		if client.OrganizationID == organizationID && client.ExternalID != nil {
			clients = append(clients, client)
		}
	}
	return clients, nil
}

type mockIntegrationConfigRepository struct {
	getByIDFunc      func(ctx context.Context, configID string) (*models.IntegrationConfig, error)
	updateTokensFunc func(ctx context.Context, configID string, accessToken string, refreshToken string, accessTokenExpiresAt time.Time) error
}

func (m *mockIntegrationConfigRepository) GetByID(ctx context.Context, configID string) (*models.IntegrationConfig, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, configID)
	}
	return nil, nil
}

func (m *mockIntegrationConfigRepository) UpdateTokens(ctx context.Context, configID string, accessToken string, refreshToken string, accessTokenExpiresAt time.Time) error {
	if m.updateTokensFunc != nil {
		return m.updateTokensFunc(ctx, configID, accessToken, refreshToken, accessTokenExpiresAt)
	}
	return nil
}

type mockTokenRefresher struct {
	refreshFunc func(ctx context.Context, refreshToken string) (*TokenRefreshResult, error)
}

func (m *mockTokenRefresher) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenRefreshResult, error) {
	return m.refreshFunc(ctx, refreshToken)
}

type mockClientRepository struct {
	upsertFunc             func(ctx context.Context, client *models.Client) (string, error)
	findByExternalIDFunc   func(ctx context.Context, organizationID string, externalID string) (*models.Client, error)
	listWithExternalIDFunc func(ctx context.Context, organizationID string) ([]models.Client, error)
}

func (m *mockClientRepository) Upsert(ctx context.Context, client *models.Client) (string, error) {
	return m.upsertFunc(ctx, client)
}

func (m *mockClientRepository) FindByExternalID(ctx context.Context, organizationID string, externalID string) (*models.Client, error) {
	return m.findByExternalIDFunc(ctx, organizationID, externalID)
}

func (m *mockClientRepository) ListWithExternalID(ctx context.Context, organizationID string) ([]models.Client, error) {
	return m.listWithExternalIDFunc(ctx, organizationID)
}

type mockFinancialAccountRepository struct {
	upsertFunc func(ctx context.Context, account *models.FinancialAccount) (string, error)
}

func (m *mockFinancialAccountRepository) Upsert(ctx context.Context, account *models.FinancialAccount) (string, error) {
	return m.upsertFunc(ctx, account)
}

type mockAumSnapshotRepository struct {
	bulkUpsertFunc func(ctx context.Context, snapshots []models.AumSnapshot) (int, error)
}

func (m *mockAumSnapshotRepository) BulkUpsert(ctx context.Context, snapshots []models.AumSnapshot) (int, error) {
	return m.bulkUpsertFunc(ctx, snapshots)
}
