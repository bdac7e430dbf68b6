package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riwaht/notion-revolut-server/internal/ledger"
	"github.com/riwaht/notion-revolut-server/internal/models"
	"github.com/riwaht/notion-revolut-server/internal/rates"
	"github.com/riwaht/notion-revolut-server/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLabeler struct {
	name  string
	calls int
}

func (s *stubLabeler) Categorize(string) models.Category {
	s.calls++
	return models.Category{Name: s.name}
}

type stubConverter struct {
	calls int
	fn    func(amount decimal.Decimal, from, to string) (rates.Conversion, error)
}

func (s *stubConverter) Convert(_ context.Context, amount decimal.Decimal, from, to string, _ time.Time) (rates.Conversion, error) {
	s.calls++
	return s.fn(amount, from, to)
}

type stubSink struct {
	posted []models.NormalizedRecord
	err    error
}

func (s *stubSink) Post(_ context.Context, record models.NormalizedRecord) error {
	if s.err != nil {
		return s.err
	}
	s.posted = append(s.posted, record)
	return nil
}

func passthroughConverter() *stubConverter {
	return &stubConverter{fn: func(amount decimal.Decimal, _, _ string) (rates.Conversion, error) {
		return rates.Conversion{Amount: amount.Round(2), Rate: decimal.New(1, 0)}, nil
	}}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	kv, err := storage.NewBadgerKV[models.FailedEntry](t.TempDir(), "ledger")
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, kv.Close()) })
	return ledger.New(kv, quietLogger())
}

type fixture struct {
	pipeline  *Pipeline
	expenses  *stubLabeler
	income    *stubLabeler
	converter *stubConverter
	sink      *stubSink
	ledger    *ledger.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		expenses:  &stubLabeler{name: "Food"},
		income:    &stubLabeler{name: "Salary"},
		converter: passthroughConverter(),
		sink:      &stubSink{},
		ledger:    newTestLedger(t),
	}
	f.pipeline = New(f.expenses, f.income, f.converter, f.sink, f.ledger, "USD", quietLogger())
	return f
}

func expenseTx(id string) models.Transaction {
	return models.Transaction{
		ID:          id,
		Description: "UBER EATS LONDON",
		Amount:      decimal.RequireFromString("-23.50"),
		Currency:    "GBP",
		BookedAt:    time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		AccountID:   "acc-1",
	}
}

func TestProcess_Success(t *testing.T) {
	f := newFixture(t)

	record, err := f.pipeline.Process(context.Background(), expenseTx("tx-1"))
	require.NoError(t, err)
	assert.Equal(t, "Food", record.Category)
	assert.Equal(t, "USD", record.TargetCurrency)
	assert.Equal(t, "-23.50", record.ConvertedAmount.StringFixed(2))
	require.Len(t, f.sink.posted, 1)

	count, err := f.ledger.Len()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcess_IncomeUsesIncomeRules(t *testing.T) {
	f := newFixture(t)

	tx := expenseTx("tx-1")
	tx.Amount = decimal.RequireFromString("2500.00")

	record, err := f.pipeline.Process(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "Salary", record.Category)
	assert.Equal(t, 1, f.income.calls)
	assert.Zero(t, f.expenses.calls)
}

func TestProcess_ConversionFailureSkipsSink(t *testing.T) {
	f := newFixture(t)
	f.converter.fn = func(decimal.Decimal, string, string) (rates.Conversion, error) {
		return rates.Conversion{}, errors.New("provider unreachable")
	}

	_, err := f.pipeline.Process(context.Background(), expenseTx("tx-1"))
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageConvert, stageErr.Stage)
	assert.Empty(t, f.sink.posted, "a transaction that failed to convert must never reach the sink")

	entries, err := f.ledger.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StageConvert, entries[0].Stage)
	assert.Equal(t, 1, entries[0].RetryCount)
}

func TestProcess_PostFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("notion returned 503")

	_, err := f.pipeline.Process(context.Background(), expenseTx("tx-1"))
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StagePost, stageErr.Stage)

	entries, err := f.ledger.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notion returned 503", entries[0].Reason)
}

func TestProcess_SuccessClearsEarlierFailure(t *testing.T) {
	f := newFixture(t)
	tx := expenseTx("tx-1")

	f.sink.err = errors.New("notion returned 503")
	_, err := f.pipeline.Process(context.Background(), tx)
	require.Error(t, err)

	f.sink.err = nil
	_, err = f.pipeline.Process(context.Background(), tx)
	require.NoError(t, err)

	count, err := f.ledger.Len()
	require.NoError(t, err)
	assert.Zero(t, count, "a transaction that finally posted must leave the ledger")
}

func TestProcess_DegradedRateIsFlagged(t *testing.T) {
	f := newFixture(t)
	f.converter.fn = func(amount decimal.Decimal, _, _ string) (rates.Conversion, error) {
		return rates.Conversion{Amount: amount.Round(2), Rate: decimal.New(1, 0), Degraded: true}, nil
	}

	record, err := f.pipeline.Process(context.Background(), expenseTx("tx-1"))
	require.NoError(t, err)
	assert.True(t, record.DegradedRate)
}
