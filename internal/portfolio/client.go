package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vipul43/portfolio-sync-worker/internal/service"
)

// maxPages bounds cursor pagination against a server that never ends the listing
const maxPages = 1000

type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewClient(baseURL, tokenURL, clientID, clientSecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type page[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"nextCursor"`
}

// ListClients fetches every client visible to the access token
func (c *Client) ListClients(ctx context.Context, accessToken string) ([]service.ClientRecord, error) {
	return listAll[service.ClientRecord](ctx, c, accessToken, "/clients")
}

// ListAccounts fetches every account visible to the access token
func (c *Client) ListAccounts(ctx context.Context, accessToken string) ([]service.AccountRecord, error) {
	return listAll[service.AccountRecord](ctx, c, accessToken, "/accounts")
}

// FetchValuationHistory fetches the dated market values of one client
func (c *Client) FetchValuationHistory(ctx context.Context, accessToken string, externalClientID string) ([]service.ValuationPoint, error) {
	path := "/clients/" + url.PathEscape(externalClientID) + "/valuations"
	return listAll[service.ValuationPoint](ctx, c, accessToken, path)
}

func listAll[T any](ctx context.Context, c *Client, accessToken string, path string) ([]T, error) {
	var all []T
	cursor := ""
	for i := 0; i < maxPages; i++ {
		var p page[T]
		if err := c.get(ctx, accessToken, path, cursor, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Data...)
		if p.NextCursor == "" || p.NextCursor == cursor {
			return all, nil
		}
		cursor = p.NextCursor
	}
	return nil, fmt.Errorf("pagination of %s exceeded %d pages", path, maxPages)
}

func (c *Client) get(ctx context.Context, accessToken string, path string, cursor string, out interface{}) error {
	endpoint := c.baseURL + path
	if cursor != "" {
		endpoint += "?cursor=" + url.QueryEscape(cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse API response: %w", err)
	}
	return nil
}

// RefreshAccessToken refreshes the OAuth2 access token
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*service.TokenRefreshResult, error) {
	config := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: c.tokenURL,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	newToken, err := config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	result := &service.TokenRefreshResult{
		AccessToken:  newToken.AccessToken,
		ExpiresAt:    newToken.Expiry,
		RefreshToken: refreshToken,
	}
	// Rotated refresh tokens replace the stored one
	if newToken.RefreshToken != "" {
		result.RefreshToken = newToken.RefreshToken
	}
	return result, nil
}
