package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
)

var ErrNoAuthToken = errors.New("no auth token available for integration")

// tokenExpiryLeeway refreshes tokens that expire within this window
const tokenExpiryLeeway = 5 * time.Minute

// IntegrationConfigRepository interface for dependency injection
type IntegrationConfigRepository interface {
	GetByID(ctx context.Context, configID string) (*models.IntegrationConfig, error)
	UpdateTokens(ctx context.Context, configID string, accessToken string, refreshToken string, accessTokenExpiresAt time.Time) error
}

// TokenResolver looks up the access token for an integration config,
// refreshing it when it is about to expire
type TokenResolver struct {
	configRepo IntegrationConfigRepository
	refresher  TokenRefresher
	logger     *logrus.Logger
	now        func() time.Time
}

func NewTokenResolver(configRepo IntegrationConfigRepository, refresher TokenRefresher, logger *logrus.Logger) *TokenResolver {
	return &TokenResolver{
		configRepo: configRepo,
		refresher:  refresher,
		logger:     logger,
		now:        time.Now,
	}
}

// ResolveAuthToken returns a usable access token for the given integration
// config. ErrNoAuthToken is returned when the config has no usable credentials.
func (r *TokenResolver) ResolveAuthToken(ctx context.Context, userID, organizationID, integrationConfigID string) (string, error) {
	cfg, err := r.configRepo.GetByID(ctx, integrationConfigID)
	if err != nil {
		return "", fmt.Errorf("failed to get integration config: %w", err)
	}

	if cfg.OrganizationID != organizationID {
		return "", fmt.Errorf("integration config %s does not belong to organization %s", integrationConfigID, organizationID)
	}

	if cfg.AccessToken == nil || *cfg.AccessToken == "" {
		return "", ErrNoAuthToken
	}

	if !r.isTokenExpired(cfg.AccessTokenExpiresAt) {
		return *cfg.AccessToken, nil
	}

	r.logger.WithFields(logrus.Fields{
		"integration_config_id": integrationConfigID,
		"user_id":               userID,
	}).Info("Access token expired, refreshing")

	return r.refreshToken(ctx, cfg)
}

// isTokenExpired checks if access token is expired or will expire within 5 minutes
func (r *TokenResolver) isTokenExpired(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return false // Provider issued a non-expiring token
	}
	return r.now().Add(tokenExpiryLeeway).After(*expiresAt)
}

// refreshToken refreshes the access token and updates the integration config
func (r *TokenResolver) refreshToken(ctx context.Context, cfg *models.IntegrationConfig) (string, error) {
	if cfg.RefreshToken == nil || *cfg.RefreshToken == "" {
		return "", fmt.Errorf("%w: access token expired and no refresh token stored", ErrNoAuthToken)
	}

	result, err := r.refresher.RefreshAccessToken(ctx, *cfg.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	err = r.configRepo.UpdateTokens(ctx, cfg.ID, result.AccessToken, result.RefreshToken, result.ExpiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to update tokens in database: %w", err)
	}

	r.logger.WithField("integration_config_id", cfg.ID).Infof("Token refreshed, expires at %s", result.ExpiresAt)

	return result.AccessToken, nil
}
