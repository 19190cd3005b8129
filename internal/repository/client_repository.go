package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
	"gorm.io/gorm"
)

var ErrClientNotFound = errors.New("client not found")

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Upsert inserts the client or updates the row with the same organization and
// source key. A client arriving with an external id for the first time takes
// over the row stored earlier under its name key. Returns the id of the stored row.
func (r *ClientRepository) Upsert(ctx context.Context, client *models.Client) (string, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Client
		err := tx.Where("organization_id = ? AND source_key = ?", client.OrganizationID, client.SourceKey).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) && client.ExternalID != nil && client.SourceKey != client.NameKey() {
			err = tx.Where("organization_id = ? AND source_key = ? AND external_id IS NULL", client.OrganizationID, client.NameKey()).
				First(&existing).Error
		}
		switch {
		case err == nil:
			client.ID = existing.ID
			client.CreatedAt = existing.CreatedAt
			return tx.Save(client).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(client).Error
		default:
			return err
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert client: %w", err)
	}
	return client.ID, nil
}

// FindByExternalID retrieves the organization's client imported with the external id
func (r *ClientRepository) FindByExternalID(ctx context.Context, organizationID string, externalID string) (*models.Client, error) {
	var client models.Client
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND external_id = ?", organizationID, externalID).
		First(&client)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", result.Error)
	}
	return &client, nil
}

// ListWithExternalID retrieves the organization's clients that carry an external id
func (r *ClientRepository) ListWithExternalID(ctx context.Context, organizationID string) ([]models.Client, error) {
	var clients []models.Client
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND external_id IS NOT NULL AND external_id <> ''", organizationID).
		Order("created_at ASC").
		Find(&clients)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query clients: %w", result.Error)
	}
	return clients, nil
}
