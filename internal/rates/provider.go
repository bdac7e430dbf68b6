package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Provider answers historical rate lookups for an exact date. It fails for
// unsupported pairs and for dates the upstream service will not serve.
type Provider interface {
	Rate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, error)
}

// FrankfurterClient queries a Frankfurter-compatible historical-rate API
// (GET /{YYYY-MM-DD}?from=X&to=Y). Transient transport failures are retried
// by the underlying client before the error surfaces.
type FrankfurterClient struct {
	http *resty.Client
	log  *logrus.Logger
}

// NewFrankfurterClient creates a rate client against baseURL.
func NewFrankfurterClient(baseURL string, logger *logrus.Logger) *FrankfurterClient {
	if logger == nil {
		logger = logrus.New()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(8 * time.Second)

	return &FrankfurterClient{http: client, log: logger}
}

type rateResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// Rate fetches the from→to rate for the given date.
func (c *FrankfurterClient) Rate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, error) {
	var out rateResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from": from,
			"to":   to,
		}).
		SetResult(&out).
		Get("/" + date.Format("2006-01-02"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate lookup failed: %w", err)
	}
	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("rate provider returned %s for %s->%s on %s",
			resp.Status(), from, to, date.Format("2006-01-02"))
	}

	raw, ok := out.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate provider response missing %s rate for %s", to, from)
	}

	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q from provider: %w", raw.String(), err)
	}

	c.log.WithFields(logrus.Fields{
		"from": from,
		"to":   to,
		"date": date.Format("2006-01-02"),
		"rate": rate.String(),
	}).Debug("Fetched historical rate")

	return rate, nil
}
