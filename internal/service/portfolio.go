package service

import (
	"context"
	"time"
)

// PortfolioClient interface for the portfolio-accounting API
type PortfolioClient interface {
	ListClients(ctx context.Context, accessToken string) ([]ClientRecord, error)
	ListAccounts(ctx context.Context, accessToken string) ([]AccountRecord, error)
	FetchValuationHistory(ctx context.Context, accessToken string, externalClientID string) ([]ValuationPoint, error)
}

// TokenRefresher exchanges a refresh token for a new access token
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenRefreshResult, error)
}

type TokenRefreshResult struct {
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string // May be same or new
}

// ClientRecord is a client as returned by the portfolio platform
type ClientRecord struct {
	ID          string                 `json:"id"`
	FirstName   string                 `json:"firstName"`
	LastName    string                 `json:"lastName"`
	DisplayName string                 `json:"displayName"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone"`
	HouseholdID string                 `json:"householdId"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// AccountRecord is a custodial account as returned by the portfolio platform
type AccountRecord struct {
	ID          string                 `json:"id"`
	ClientID    string                 `json:"clientId"`
	Name        string                 `json:"name"`
	Number      string                 `json:"number"`
	Type        string                 `json:"type"`
	Custodian   string                 `json:"custodian"`
	MarketValue *float64               `json:"marketValue"`
	Currency    string                 `json:"currency"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// ValuationPoint is one dated market value in a client's history
type ValuationPoint struct {
	Date        string  `json:"date"`
	MarketValue float64 `json:"marketValue"`
	Currency    string  `json:"currency"`
}
