// Package notion posts normalized transactions to Notion databases. Expenses
// and income land in separate databases; transient API failures are retried
// with exponential backoff before the error is surfaced to the pipeline.
package notion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riwaht/notion-revolut-server/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/jomei/notionapi"
	"github.com/sirupsen/logrus"
)

// Config identifies the destination databases and the relation pages
// transactions link to. CategoryRelations maps category labels to Notion page
// IDs; labels without a mapping fall back to the FallbackCategory entry.
type Config struct {
	ExpensesDatabaseID string
	IncomeDatabaseID   string
	AccountRelationID  string
	CategoryRelations  map[string]string
	FallbackCategory   string
	MaxRetries         uint64
}

// Sink posts normalized records as Notion pages.
type Sink struct {
	pages notionapi.PageService
	cfg   Config
	log   *logrus.Logger
}

// NewSink creates a sink over an authenticated Notion client.
func NewSink(token string, cfg Config, logger *logrus.Logger) *Sink {
	client := notionapi.NewClient(notionapi.Token(token))
	return newSink(client.Page, cfg, logger)
}

func newSink(pages notionapi.PageService, cfg Config, logger *logrus.Logger) *Sink {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.FallbackCategory == "" {
		cfg.FallbackCategory = "Other"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Sink{pages: pages, cfg: cfg, log: logger}
}

// Post creates a page for the record in the expenses or income database,
// picked by the sign of the original amount. Transient failures (429, 5xx,
// transport errors) are retried; client errors fail immediately.
func (s *Sink) Post(ctx context.Context, record models.NormalizedRecord) error {
	req := s.buildPageRequest(record)

	op := func() error {
		_, err := s.pages.Create(ctx, req)
		if err == nil {
			return nil
		}
		if isPermanentAPIError(err) {
			return backoff.Permanent(err)
		}
		s.log.WithError(err).WithField("transaction", record.Transaction.ShortID()).
			Warn("Notion create failed, retrying")
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.cfg.MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("creating notion page for %s: %w", record.Transaction.ShortID(), err)
	}

	s.log.WithFields(logrus.Fields{
		"transaction": record.Transaction.ShortID(),
		"category":    record.Category,
		"database":    s.databaseFor(record),
	}).Debug("Notion page created")
	return nil
}

func (s *Sink) databaseFor(record models.NormalizedRecord) string {
	if record.Transaction.IsIncome() {
		return s.cfg.IncomeDatabaseID
	}
	return s.cfg.ExpensesDatabaseID
}

// buildPageRequest maps the record onto the destination schema. Amounts are
// posted as absolute values; the expense/income split already carries the
// sign. Expense pages additionally get month and year selects for the
// dashboard rollups.
func (s *Sink) buildPageRequest(record models.NormalizedRecord) *notionapi.PageCreateRequest {
	tx := record.Transaction
	bookedDate := notionapi.Date(time.Date(
		tx.BookedAt.Year(), tx.BookedAt.Month(), tx.BookedAt.Day(),
		0, 0, 0, 0, time.UTC,
	))
	amount, _ := record.ConvertedAmount.Abs().Float64()

	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: tx.Description},
				},
			},
		},
		"Amount": notionapi.NumberProperty{Number: amount},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &bookedDate},
		},
	}

	if s.cfg.AccountRelationID != "" {
		props["Account"] = notionapi.RelationProperty{
			Relation: []notionapi.Relation{{ID: notionapi.PageID(s.cfg.AccountRelationID)}},
		}
	}

	if relationID := s.categoryRelation(record.Category); relationID != "" {
		props["Category"] = notionapi.RelationProperty{
			Relation: []notionapi.Relation{{ID: notionapi.PageID(relationID)}},
		}
	}

	if !tx.IsIncome() {
		props["Month"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.BookedAt.Format("January")},
		}
		props["Year"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.BookedAt.Format("2006")},
		}
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.databaseFor(record)),
		},
		Properties: props,
	}
}

func (s *Sink) categoryRelation(category string) string {
	if id, ok := s.cfg.CategoryRelations[category]; ok {
		return id
	}
	return s.cfg.CategoryRelations[s.cfg.FallbackCategory]
}

// isPermanentAPIError reports whether the Notion API rejected the request in
// a way a retry cannot fix: bad payload, bad auth, missing database or a
// schema mismatch.
func isPermanentAPIError(err error) bool {
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case 400, 401, 403, 404, 422:
		return true
	}
	return false
}
