package banking

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"oauth2-relay/internal/models"
)

// AcceptHeader is the media type the accounts API versions its responses with
const AcceptHeader = "application/vnd.sparebank1.v1+json; charset=utf-8"

// Failure is returned when the accounts endpoint is unreachable or answers non-2xx
type Failure struct {
	StatusCode int // zero when no response was received
	Err        error
}

func (e *Failure) Error() string {
	return fmt.Sprintf("failed to fetch accounts: %v", e.Err)
}

func (e *Failure) Unwrap() error {
	return e.Err
}

// Client calls the personal banking API with a bearer token
type Client struct {
	accountsURI string
	httpClient  *http.Client
	log         *logrus.Logger
}

// NewClient creates a resource client for the given accounts endpoint
func NewClient(accountsURI string, httpClient *http.Client, log *logrus.Logger) *Client {
	return &Client{
		accountsURI: accountsURI,
		httpClient:  httpClient,
		log:         log,
	}
}

// GetAccounts fetches the account list. The body is returned byte for byte;
// all errors are *Failure.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*models.AccountsResponse, error) {
	c.log.Infof("🔄 [BANKING] Fetching accounts from %s", c.accountsURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.accountsURI, nil)
	if err != nil {
		return nil, &Failure{Err: fmt.Errorf("failed to create accounts request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", AcceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorf("❌ [BANKING] Accounts request failed: %v", err)
		return nil, &Failure{Err: fmt.Errorf("accounts request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.log.Errorf("❌ [BANKING] Accounts endpoint returned status %d", resp.StatusCode)
		return nil, &Failure{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("accounts endpoint returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Errorf("❌ [BANKING] Failed to read accounts response: %v", err)
		return nil, &Failure{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read accounts response: %w", err)}
	}

	c.log.Infof("✅ [BANKING] Successfully fetched accounts (%d bytes)", len(body))
	return &models.AccountsResponse{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
