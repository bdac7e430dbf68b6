// Package app provides dependency injection for the application. It
// centralizes the creation and wiring of all components, making them explicit
// and testable.
package app

import (
	"fmt"
	"path/filepath"

	"github.com/riwaht/notion-revolut-server/internal/categorizer"
	"github.com/riwaht/notion-revolut-server/internal/config"
	"github.com/riwaht/notion-revolut-server/internal/ledger"
	"github.com/riwaht/notion-revolut-server/internal/models"
	"github.com/riwaht/notion-revolut-server/internal/notion"
	"github.com/riwaht/notion-revolut-server/internal/pipeline"
	"github.com/riwaht/notion-revolut-server/internal/rates"
	"github.com/riwaht/notion-revolut-server/internal/rules"
	"github.com/riwaht/notion-revolut-server/internal/storage"
	"github.com/riwaht/notion-revolut-server/internal/truelayer"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies. It is immutable after
// creation; components are reached through getters so nothing can be rewired
// mid-run.
type Container struct {
	logger *logrus.Logger
	config *config.Config

	rateCache   storage.KV[decimal.Decimal]
	ledgerKV    storage.KV[models.FailedEntry]
	postedGuard storage.KV[string]

	ledger   *ledger.Ledger
	pipeline *pipeline.Pipeline
	retry    *pipeline.RetryRunner
	sync     *pipeline.SyncService

	expenses *categorizer.Categorizer
	income   *categorizer.Categorizer
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := config.ConfigureLoggingFromConfig(cfg)

	// Load categorization rules
	ruleStore := rules.NewStore(cfg.Rules.File, logger)
	ruleSet, err := ruleStore.Load()
	if err != nil {
		return nil, fmt.Errorf("loading categorization rules: %w", err)
	}

	embedder := categorizer.NewLocalEmbedder(cfg.Categorization.EmbeddingDim)
	threshold := cfg.Categorization.SemanticThreshold
	expenses := categorizer.New(ruleSet.Expenses, embedder, threshold, logger)
	income := categorizer.New(ruleSet.Income, embedder, threshold, logger)

	// Durable buckets under the data directory
	dataDir := cfg.Data.Directory
	rateCache, err := storage.NewBadgerKV[decimal.Decimal](filepath.Join(dataDir, "rates"), "rates")
	if err != nil {
		return nil, fmt.Errorf("opening rate cache: %w", err)
	}
	ledgerKV, err := storage.NewBadgerKV[models.FailedEntry](filepath.Join(dataDir, "ledger"), "ledger")
	if err != nil {
		return nil, fmt.Errorf("opening failure ledger: %w", err)
	}
	postedGuard, err := storage.NewBadgerKV[string](filepath.Join(dataDir, "posted"), "posted")
	if err != nil {
		return nil, fmt.Errorf("opening posted guard: %w", err)
	}

	// Rates
	provider := rates.NewFrankfurterClient(cfg.Rates.ProviderURL, logger)
	rateStore := rates.NewRateStore(rateCache, provider, logger)

	// Ledger and sinks
	led := ledger.New(ledgerKV, logger)
	sink := notion.NewSink(cfg.Notion.Token, notion.Config{
		ExpensesDatabaseID: cfg.Notion.ExpensesDatabaseID,
		IncomeDatabaseID:   cfg.Notion.IncomeDatabaseID,
		AccountRelationID:  cfg.Notion.AccountRelationID,
		CategoryRelations:  cfg.Notion.CategoryRelations,
		FallbackCategory:   cfg.Notion.FallbackCategory,
	}, logger)

	pipe := pipeline.New(expenses, income, rateStore, sink, led, cfg.Sync.BaseCurrency, logger)

	// Source
	tokens := &truelayer.FileTokenSource{Path: cfg.TrueLayer.TokenFile}
	source := truelayer.NewClient(cfg.TrueLayer.APIBase, tokens, logger)

	return &Container{
		logger:      logger,
		config:      cfg,
		rateCache:   rateCache,
		ledgerKV:    ledgerKV,
		postedGuard: postedGuard,
		ledger:      led,
		pipeline:    pipe,
		retry:       pipeline.NewRetryRunner(led, pipe, logger),
		sync:        pipeline.NewSyncService(source, pipe, postedGuard, cfg.CutoffTime(), logger),
		expenses:    expenses,
		income:      income,
	}, nil
}

// Logger returns the configured application logger.
func (c *Container) Logger() *logrus.Logger { return c.logger }

// Config returns the application configuration.
func (c *Container) Config() *config.Config { return c.config }

// Ledger returns the failure ledger.
func (c *Container) Ledger() *ledger.Ledger { return c.ledger }

// Pipeline returns the normalization pipeline.
func (c *Container) Pipeline() *pipeline.Pipeline { return c.pipeline }

// RetryRunner returns the ledger replay runner.
func (c *Container) RetryRunner() *pipeline.RetryRunner { return c.retry }

// SyncService returns the account sync service.
func (c *Container) SyncService() *pipeline.SyncService { return c.sync }

// ExpenseCategorizer returns the categorizer for debit transactions.
func (c *Container) ExpenseCategorizer() *categorizer.Categorizer { return c.expenses }

// IncomeCategorizer returns the categorizer for credit transactions.
func (c *Container) IncomeCategorizer() *categorizer.Categorizer { return c.income }

// Close releases all durable stores. Safe to call once at shutdown.
func (c *Container) Close() error {
	var firstErr error
	for _, closer := range []interface{ Close() error }{c.rateCache, c.ledgerKV, c.postedGuard} {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
