package models

import "time"

// FinancialAccount is a custodial account held by a client
type FinancialAccount struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	ClientID            string    `gorm:"column:client_id;index"`
	IntegrationConfigID string    `gorm:"column:integration_config_id;uniqueIndex:idx_account_config_external"`
	ExternalID          string    `gorm:"column:external_id;uniqueIndex:idx_account_config_external"`
	Name                string    `gorm:"column:name"`
	AccountNumber       *string   `gorm:"column:account_number"`
	AccountType         *string   `gorm:"column:account_type"`
	Custodian           *string   `gorm:"column:custodian"`
	MarketValue         float64   `gorm:"column:market_value"`
	Currency            string    `gorm:"column:currency"`
	Metadata            JSONB     `gorm:"column:metadata;type:jsonb"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (FinancialAccount) TableName() string {
	return "financial_account"
}
