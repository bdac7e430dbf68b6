// Package truelayer fetches Revolut accounts and transactions through the
// TrueLayer data API. The OAuth dance happens outside this process; the
// client only needs a way to obtain a current access token.
package truelayer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/riwaht/notion-revolut-server/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// TokenSource supplies a valid bearer token for API calls. Implementations
// own refresh and persistence.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to a TrueLayer-compatible data API.
type Client struct {
	http   *resty.Client
	tokens TokenSource
	log    *logrus.Logger
}

// NewClient creates a client against baseURL using tokens for auth.
func NewClient(baseURL string, tokens TokenSource, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(8 * time.Second)

	return &Client{http: http, tokens: tokens, log: logger}
}

type resultsEnvelope[T any] struct {
	Results []T `json:"results"`
}

// Accounts lists all accounts visible to the current token.
func (c *Client) Accounts(ctx context.Context) ([]models.Account, error) {
	var out resultsEnvelope[models.Account]
	if err := c.get(ctx, "/data/v1/accounts", &out); err != nil {
		return nil, fmt.Errorf("fetching accounts: %w", err)
	}
	c.log.WithField("count", len(out.Results)).Debug("Fetched accounts")
	return out.Results, nil
}

// Transactions lists transactions for an account. The from parameter is
// passed upstream as a window hint; callers still filter by their own cutoff
// because providers are free to return a wider range.
func (c *Client) Transactions(ctx context.Context, accountID string, from time.Time) ([]models.Transaction, error) {
	path := fmt.Sprintf("/data/v1/accounts/%s/transactions", accountID)

	var out resultsEnvelope[models.Transaction]
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining access token: %w", err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out)
	if !from.IsZero() {
		req.SetQueryParam("from", from.UTC().Format(time.RFC3339))
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions for %s: %w", accountID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("transactions request for %s returned %s", accountID, resp.Status())
	}

	c.log.WithFields(logrus.Fields{
		"account": accountID,
		"count":   len(out.Results),
	}).Debug("Fetched transactions")
	return out.Results, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("obtaining access token: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(out).
		Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("request to %s returned %s", path, resp.Status())
	}
	return nil
}

// FileTokenSource reads the access token from a JSON token file maintained
// by an external OAuth helper. The file is re-read on every call so an
// out-of-band refresh is picked up without restarting.
type FileTokenSource struct {
	Path string
}

type tokenFile struct {
	AccessToken string `json:"access_token"`
}

func (s *FileTokenSource) Token(context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("parsing token file %s: %w", s.Path, err)
	}
	if tf.AccessToken == "" {
		return "", fmt.Errorf("token file %s has no access token", s.Path)
	}
	return tf.AccessToken, nil
}

// StaticTokenSource returns a fixed token. Useful for tests and short-lived
// invocations with a token passed through the environment.
type StaticTokenSource struct {
	AccessToken string
}

func (s *StaticTokenSource) Token(context.Context) (string, error) {
	if s.AccessToken == "" {
		return "", fmt.Errorf("no access token configured")
	}
	return s.AccessToken, nil
}
