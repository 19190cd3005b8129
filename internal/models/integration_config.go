package models

import "time"

// IntegrationConfig holds the OAuth credentials a user connected for the
// portfolio-accounting platform
type IntegrationConfig struct {
	ID                   string     `gorm:"column:id;primaryKey"`
	UserID               string     `gorm:"column:user_id;index"`
	OrganizationID       string     `gorm:"column:organization_id;index"`
	Provider             string     `gorm:"column:provider"`
	AccessToken          *string    `gorm:"column:access_token"`
	RefreshToken         *string    `gorm:"column:refresh_token"`
	AccessTokenExpiresAt *time.Time `gorm:"column:access_token_expires_at"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (IntegrationConfig) TableName() string {
	return "integration_config"
}
