// Package rates resolves historical currency conversion rates with a
// persistent cache and a static fallback table.
package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riwaht/notion-revolut-server/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedPair is returned when neither the provider nor the fallback
// table can price a currency pair.
var ErrUnsupportedPair = errors.New("unsupported currency pair")

// Conversion is the result of converting an amount. Degraded marks results
// computed from the static fallback table instead of a verified historical
// rate.
type Conversion struct {
	Amount   decimal.Decimal
	Rate     decimal.Decimal
	Degraded bool
}

// RateStore converts amounts between currencies at historical rates.
// Resolution order: identity, persistent cache, remote provider (cached on
// success), static fallback (never cached). Mutations are serialized
// internally; the store still assumes at most one active pipeline run.
type RateStore struct {
	cache    storage.KV[decimal.Decimal]
	provider Provider
	fallback *FallbackTable
	now      func() time.Time
	mu       sync.Mutex
	log      *logrus.Logger
}

// NewRateStore creates a rate store over the given cache bucket and
// historical-rate provider.
func NewRateStore(cache storage.KV[decimal.Decimal], provider Provider, logger *logrus.Logger) *RateStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &RateStore{
		cache:    cache,
		provider: provider,
		fallback: DefaultFallbackTable(),
		now:      time.Now,
		log:      logger,
	}
}

// Convert converts amount from one currency to another at the rate for the
// given date. The converted amount is rounded to 2 decimal places, half up.
func (s *RateStore) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return Conversion{Amount: amount, Rate: decimal.New(1, 0)}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(from, to, date)

	rate, found, err := s.cache.Get(key)
	if err != nil {
		return Conversion{}, fmt.Errorf("rate cache read failed: %w", err)
	}
	if found {
		return Conversion{Amount: roundAmount(amount, rate), Rate: rate}, nil
	}

	// Dates the provider cannot have a rate for yet go straight to the
	// fallback table.
	if dateOnly(date).After(dateOnly(s.now())) {
		s.log.WithFields(logrus.Fields{
			"pair": from + "/" + to,
			"date": date.Format("2006-01-02"),
		}).Warn("Future-dated transaction, using fallback rate")
		return s.convertWithFallback(amount, from, to)
	}

	rate, err = s.provider.Rate(ctx, date, from, to)
	if err != nil {
		s.log.WithError(err).WithField("pair", from+"/"+to).
			Warn("Historical rate lookup failed, using fallback rate")
		return s.convertWithFallback(amount, from, to)
	}

	// Cached entries are append-only: a verified rate for a date is
	// authoritative and never overwritten.
	if _, err := s.cache.SetIfAbsent(key, rate); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to cache rate")
	}

	return Conversion{Amount: roundAmount(amount, rate), Rate: rate}, nil
}

// convertWithFallback prices the pair from the static table. The result is
// an approximation: it is flagged degraded and not written to the cache.
func (s *RateStore) convertWithFallback(amount decimal.Decimal, from, to string) (Conversion, error) {
	rate, ok := s.fallback.Rate(from, to)
	if !ok {
		return Conversion{}, fmt.Errorf("%w: %s->%s", ErrUnsupportedPair, from, to)
	}
	return Conversion{Amount: roundAmount(amount, rate), Rate: rate, Degraded: true}, nil
}

func cacheKey(from, to string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s", from, to, date.Format("2006-01-02"))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// roundAmount multiplies at full decimal precision, then rounds the result
// to 2 places, half up.
func roundAmount(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
