// Package models provides the data structures used throughout the application.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a raw bank transaction as delivered by the data provider.
// It is immutable input: the pipeline never mutates it, only derives
// NormalizedRecord values from it.
type Transaction struct {
	ID          string          `json:"transaction_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	BookedAt    time.Time       `json:"timestamp"`
	AccountID   string          `json:"account_id"`
}

// IsIncome reports whether the transaction credits the account.
// Zero amounts are treated as income, matching the provider's convention.
func (t Transaction) IsIncome() bool {
	return !t.Amount.IsNegative()
}

// ShortID returns a truncated transaction identifier suitable for log lines.
func (t Transaction) ShortID() string {
	if len(t.ID) <= 12 {
		return t.ID
	}
	return t.ID[:12]
}

// NormalizedRecord is the pipeline output: the original transaction plus the
// assigned category, the amount converted to the target currency and the rate
// that was used. The pipeline hands it to the posting sink and does not
// retain it afterwards.
type NormalizedRecord struct {
	Transaction     Transaction
	Category        string
	ConvertedAmount decimal.Decimal
	TargetCurrency  string
	Rate            decimal.Decimal
	DegradedRate    bool
}

// FailedEntry is a transaction that failed somewhere in the pipeline,
// persisted for later replay. RetryCount starts at 1 on the first record and
// is incremented every time the same transaction is recorded again.
type FailedEntry struct {
	Transaction   Transaction `json:"transaction"`
	Stage         string      `json:"stage"`
	Reason        string      `json:"reason"`
	RetryCount    int         `json:"retry_count"`
	FirstFailedAt time.Time   `json:"first_failed_at"`
	LastTriedAt   time.Time   `json:"last_tried_at"`
}

// Account is a provider account that transactions belong to.
type Account struct {
	ID          string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Type        string `json:"account_type"`
	Currency    string `json:"currency"`
}

// SyncResult aggregates the outcome of one sync invocation.
type SyncResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// RetryResult aggregates the outcome of one retry invocation.
type RetryResult struct {
	Succeeded    int `json:"succeeded"`
	StillFailing int `json:"still_failing"`
}
