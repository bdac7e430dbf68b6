// Package ledger persists pipeline failures for later replay. Every failed
// transaction is written synchronously before the pipeline moves on, so a
// crash mid-run cannot lose a recorded failure.
package ledger

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/riwaht/notion-revolut-server/internal/models"
	"github.com/riwaht/notion-revolut-server/internal/storage"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
)

// Ledger is the durable failure ledger, keyed by transaction ID. Recording a
// transaction that is already present updates the entry in place and bumps
// its retry count.
type Ledger struct {
	kv  storage.KV[models.FailedEntry]
	now func() time.Time
	mu  sync.Mutex
	log *logrus.Logger
}

// New creates a ledger over the given bucket.
func New(kv storage.KV[models.FailedEntry], logger *logrus.Logger) *Ledger {
	if logger == nil {
		logger = logrus.New()
	}
	return &Ledger{kv: kv, now: time.Now, log: logger}
}

// Record upserts a failure for tx. On first failure the retry count starts
// at 1; recording the same transaction again increments it and refreshes the
// stage and reason to the most recent failure.
func (l *Ledger) Record(tx models.Transaction, stage, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	entry, found, err := l.kv.Get(tx.ID)
	if err != nil {
		return fmt.Errorf("ledger read failed for %s: %w", tx.ShortID(), err)
	}
	if found {
		entry.Stage = stage
		entry.Reason = reason
		entry.RetryCount++
		entry.LastTriedAt = now
	} else {
		entry = models.FailedEntry{
			Transaction:   tx,
			Stage:         stage,
			Reason:        reason,
			RetryCount:    1,
			FirstFailedAt: now,
			LastTriedAt:   now,
		}
	}

	if err := l.kv.Set(tx.ID, entry); err != nil {
		return fmt.Errorf("ledger write failed for %s: %w", tx.ShortID(), err)
	}

	l.log.WithFields(logrus.Fields{
		"transaction": tx.ShortID(),
		"stage":       stage,
		"retries":     entry.RetryCount,
	}).Warn("Transaction recorded in failure ledger")
	return nil
}

// Remove deletes the entry for the given transaction ID. Removing an absent
// entry is not an error.
func (l *Ledger) Remove(txID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.kv.Delete(txID)
}

// Has reports whether a failure is recorded for the given transaction ID.
func (l *Ledger) Has(txID string) (bool, error) {
	return l.kv.Has(txID)
}

// List returns all recorded failures, oldest first failure first. Entries
// that failed at the same instant are ordered by transaction ID so the
// listing is stable.
func (l *Ledger) List() ([]models.FailedEntry, error) {
	var entries []models.FailedEntry
	err := l.kv.ForEach(func(_ string, entry models.FailedEntry) error {
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger scan failed: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].FirstFailedAt.Equal(entries[j].FirstFailedAt) {
			return entries[i].FirstFailedAt.Before(entries[j].FirstFailedAt)
		}
		return entries[i].Transaction.ID < entries[j].Transaction.ID
	})
	return entries, nil
}

// Len returns the number of recorded failures.
func (l *Ledger) Len() (int, error) {
	count := 0
	err := l.kv.ForEach(func(string, models.FailedEntry) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ledger scan failed: %w", err)
	}
	return count, nil
}

// csvRow is the flattened CSV shape of a ledger entry, for operator review.
type csvRow struct {
	TransactionID string `csv:"Transaction ID"`
	Description   string `csv:"Description"`
	Amount        string `csv:"Amount"`
	Currency      string `csv:"Currency"`
	BookedAt      string `csv:"Booked At"`
	Stage         string `csv:"Stage"`
	Reason        string `csv:"Reason"`
	RetryCount    int    `csv:"Retry Count"`
	FirstFailedAt string `csv:"First Failed At"`
	LastTriedAt   string `csv:"Last Tried At"`
}

// ExportCSV writes all recorded failures to w as CSV, in List order.
func (l *Ledger) ExportCSV(w io.Writer) error {
	entries, err := l.List()
	if err != nil {
		return err
	}

	rows := make([]csvRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, csvRow{
			TransactionID: e.Transaction.ID,
			Description:   e.Transaction.Description,
			Amount:        e.Transaction.Amount.String(),
			Currency:      e.Transaction.Currency,
			BookedAt:      e.Transaction.BookedAt.Format(time.RFC3339),
			Stage:         e.Stage,
			Reason:        e.Reason,
			RetryCount:    e.RetryCount,
			FirstFailedAt: e.FirstFailedAt.Format(time.RFC3339),
			LastTriedAt:   e.LastTriedAt.Format(time.RFC3339),
		})
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("ledger CSV export failed: %w", err)
	}
	return nil
}
