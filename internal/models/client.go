package models

import (
	"strings"
	"time"
)

// Client is an advisory client imported from the portfolio platform.
// SourceKey is the external id when present, otherwise a key derived from the
// client name, so repeated syncs update the same row.
type Client struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	OrganizationID      string    `gorm:"column:organization_id;uniqueIndex:idx_client_org_source"`
	UserID              string    `gorm:"column:user_id;index"`
	IntegrationConfigID string    `gorm:"column:integration_config_id;index"`
	SourceKey           string    `gorm:"column:source_key;uniqueIndex:idx_client_org_source"`
	ExternalID          *string   `gorm:"column:external_id;index"`
	FirstName           string    `gorm:"column:first_name"`
	LastName            string    `gorm:"column:last_name"`
	Email               *string   `gorm:"column:email"`
	Phone               *string   `gorm:"column:phone"`
	Metadata            JSONB     `gorm:"column:metadata;type:jsonb"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Client) TableName() string {
	return "client"
}

// NameKey is the source key of a client imported without an external id
func (c Client) NameKey() string {
	return "name:" + strings.ToLower(strings.TrimSpace(c.FirstName+" "+c.LastName))
}
