package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
	"gorm.io/gorm"
)

var ErrIntegrationConfigNotFound = errors.New("integration config not found")

type IntegrationConfigRepository struct {
	db *gorm.DB
}

func NewIntegrationConfigRepository(db *gorm.DB) *IntegrationConfigRepository {
	return &IntegrationConfigRepository{db: db}
}

// GetByID retrieves integration config by ID
func (r *IntegrationConfigRepository) GetByID(ctx context.Context, configID string) (*models.IntegrationConfig, error) {
	var cfg models.IntegrationConfig
	result := r.db.WithContext(ctx).First(&cfg, "id = ?", configID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrIntegrationConfigNotFound
		}
		return nil, fmt.Errorf("failed to get integration config: %w", result.Error)
	}
	return &cfg, nil
}

// UpdateTokens updates access token, refresh token, and the access token expiry
func (r *IntegrationConfigRepository) UpdateTokens(ctx context.Context, configID string, accessToken string, refreshToken string, accessTokenExpiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.IntegrationConfig{}).
		Where("id = ?", configID).
		Updates(map[string]interface{}{
			"access_token":            accessToken,
			"refresh_token":           refreshToken,
			"access_token_expires_at": accessTokenExpiresAt,
			"updated_at":              time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update tokens: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIntegrationConfigNotFound
	}
	return nil
}
