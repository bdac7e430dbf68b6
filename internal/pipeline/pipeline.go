// Package pipeline normalizes raw bank transactions and posts them to the
// configured sink. Each transaction passes three stages in order: categorize,
// convert, post. A failure at any stage is recorded in the failure ledger
// before the error surfaces, so no transaction is ever silently dropped.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/riwaht/notion-revolut-server/internal/ledger"
	"github.com/riwaht/notion-revolut-server/internal/models"
	"github.com/riwaht/notion-revolut-server/internal/rates"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Pipeline stage names, recorded in ledger entries and stage errors.
const (
	StageCategorize = "categorize"
	StageConvert    = "convert"
	StagePost       = "post"
)

// StageError wraps a failure with the pipeline stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Labeler assigns a category label to a transaction description.
type Labeler interface {
	Categorize(description string) models.Category
}

// Converter converts an amount between currencies at the rate for a date.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (rates.Conversion, error)
}

// PostingSink receives fully normalized records. Post must be idempotent at
// the caller's level: the pipeline retries failed transactions, so a sink
// error after a successful write can produce a duplicate downstream.
type PostingSink interface {
	Post(ctx context.Context, record models.NormalizedRecord) error
}

// Pipeline runs transactions through categorize, convert and post. Expenses
// and income are categorized against separate rule groups.
type Pipeline struct {
	expenses       Labeler
	income         Labeler
	converter      Converter
	sink           PostingSink
	ledger         *ledger.Ledger
	targetCurrency string
	log            *logrus.Logger
}

// New creates a pipeline posting to sink in targetCurrency.
func New(expenses, income Labeler, converter Converter, sink PostingSink, led *ledger.Ledger, targetCurrency string, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		expenses:       expenses,
		income:         income,
		converter:      converter,
		sink:           sink,
		ledger:         led,
		targetCurrency: targetCurrency,
		log:            logger,
	}
}

// Process runs one transaction through the full pipeline. On failure the
// transaction is recorded in the ledger and a StageError is returned. On
// success any existing ledger entry for the transaction is cleared, so a
// retried transaction leaves the ledger once it finally goes through.
func (p *Pipeline) Process(ctx context.Context, tx models.Transaction) (models.NormalizedRecord, error) {
	labeler := p.expenses
	if tx.IsIncome() {
		labeler = p.income
	}
	category := labeler.Categorize(tx.Description)

	conv, err := p.converter.Convert(ctx, tx.Amount, tx.Currency, p.targetCurrency, tx.BookedAt)
	if err != nil {
		return models.NormalizedRecord{}, p.fail(tx, StageConvert, err)
	}
	if conv.Degraded {
		p.log.WithFields(logrus.Fields{
			"transaction": tx.ShortID(),
			"pair":        tx.Currency + "/" + p.targetCurrency,
		}).Warn("Converted with a fallback rate, amount is approximate")
	}

	record := models.NormalizedRecord{
		Transaction:     tx,
		Category:        category.Name,
		ConvertedAmount: conv.Amount,
		TargetCurrency:  p.targetCurrency,
		Rate:            conv.Rate,
		DegradedRate:    conv.Degraded,
	}

	if err := p.sink.Post(ctx, record); err != nil {
		return models.NormalizedRecord{}, p.fail(tx, StagePost, err)
	}

	if err := p.clearFailure(tx); err != nil {
		return models.NormalizedRecord{}, err
	}

	p.log.WithFields(logrus.Fields{
		"transaction": tx.ShortID(),
		"category":    record.Category,
		"amount":      record.ConvertedAmount.String(),
		"currency":    record.TargetCurrency,
	}).Info("Transaction posted")
	return record, nil
}

// fail records the failure durably before returning it. A ledger write
// failure takes precedence: losing the record is worse than losing the
// original error.
func (p *Pipeline) fail(tx models.Transaction, stage string, cause error) error {
	if err := p.ledger.Record(tx, stage, cause.Error()); err != nil {
		return fmt.Errorf("recording %s failure: %w", stage, err)
	}
	return &StageError{Stage: stage, Err: cause}
}

func (p *Pipeline) clearFailure(tx models.Transaction) error {
	has, err := p.ledger.Has(tx.ID)
	if err != nil {
		return fmt.Errorf("ledger lookup failed for %s: %w", tx.ShortID(), err)
	}
	if !has {
		return nil
	}
	if err := p.ledger.Remove(tx.ID); err != nil {
		return fmt.Errorf("clearing ledger entry for %s: %w", tx.ShortID(), err)
	}
	p.log.WithField("transaction", tx.ShortID()).Info("Previously failed transaction recovered")
	return nil
}
