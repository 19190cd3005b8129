package models

import "time"

// AumSnapshot is one point of a client's historical assets under management
type AumSnapshot struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	ClientID            string    `gorm:"column:client_id;uniqueIndex:idx_aum_client_date"`
	IntegrationConfigID string    `gorm:"column:integration_config_id;index"`
	AsOfDate            time.Time `gorm:"column:as_of_date;uniqueIndex:idx_aum_client_date"`
	MarketValue         float64   `gorm:"column:market_value"`
	Currency            string    `gorm:"column:currency"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (AumSnapshot) TableName() string {
	return "aum_snapshot"
}
