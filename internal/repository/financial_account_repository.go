package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
	"gorm.io/gorm"
)

type FinancialAccountRepository struct {
	db *gorm.DB
}

func NewFinancialAccountRepository(db *gorm.DB) *FinancialAccountRepository {
	return &FinancialAccountRepository{db: db}
}

// Upsert inserts the account or updates the row imported earlier through the
// same integration. Returns the id of the stored row.
func (r *FinancialAccountRepository) Upsert(ctx context.Context, account *models.FinancialAccount) (string, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FinancialAccount
		err := tx.Where("integration_config_id = ? AND external_id = ?", account.IntegrationConfigID, account.ExternalID).
			First(&existing).Error
		switch {
		case err == nil:
			account.ID = existing.ID
			account.CreatedAt = existing.CreatedAt
			return tx.Save(account).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(account).Error
		default:
			return err
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert account: %w", err)
	}
	return account.ID, nil
}

// GetByClientID retrieves all accounts of a client
func (r *FinancialAccountRepository) GetByClientID(ctx context.Context, clientID string) ([]models.FinancialAccount, error) {
	var accounts []models.FinancialAccount
	result := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("name ASC").
		Find(&accounts)
	return accounts, result.Error
}
