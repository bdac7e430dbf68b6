package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riwaht/notion-revolut-server/internal/models"
	"github.com/riwaht/notion-revolut-server/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	accounts []models.Account
	txs      map[string][]models.Transaction
	err      error
}

func (s *stubSource) Accounts(context.Context) ([]models.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.accounts, nil
}

func (s *stubSource) Transactions(_ context.Context, accountID string, _ time.Time) ([]models.Transaction, error) {
	return s.txs[accountID], nil
}

func newPostedGuard(t *testing.T) storage.KV[string] {
	t.Helper()
	kv, err := storage.NewBadgerKV[string](t.TempDir(), "posted")
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, kv.Close()) })
	return kv
}

func TestSync_PostsNewTransactions(t *testing.T) {
	f := newFixture(t)
	source := &stubSource{
		accounts: []models.Account{{ID: "acc-1", Currency: "GBP"}},
		txs: map[string][]models.Transaction{
			"acc-1": {expenseTx("tx-1"), expenseTx("tx-2")},
		},
	}
	guard := newPostedGuard(t)
	svc := NewSyncService(source, f.pipeline, guard, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), quietLogger())

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Succeeded: 2}, result)
	assert.Len(t, f.sink.posted, 2)

	has, err := guard.Has("tx-1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSync_SecondRunSkipsPostedTransactions(t *testing.T) {
	f := newFixture(t)
	source := &stubSource{
		accounts: []models.Account{{ID: "acc-1"}},
		txs:      map[string][]models.Transaction{"acc-1": {expenseTx("tx-1")}},
	}
	guard := newPostedGuard(t)
	svc := NewSyncService(source, f.pipeline, guard, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), quietLogger())

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Skipped: 1}, result)
	assert.Len(t, f.sink.posted, 1, "the sink must only see each transaction once")
}

func TestSync_SkipsTransactionsBeforeCutoff(t *testing.T) {
	f := newFixture(t)
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	oldTx := expenseTx("tx-old")
	oldTx.BookedAt = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	atCutoff := expenseTx("tx-at-cutoff")
	atCutoff.BookedAt = cutoff
	source := &stubSource{
		accounts: []models.Account{{ID: "acc-1"}},
		txs:      map[string][]models.Transaction{"acc-1": {oldTx, atCutoff, expenseTx("tx-new")}},
	}
	svc := NewSyncService(source, f.pipeline, newPostedGuard(t), cutoff, quietLogger())

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Succeeded: 1, Skipped: 2}, result, "transactions at or before the cutoff are skipped")
}

func TestSync_FailedTransactionsAreCountedNotFatal(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("notion returned 503")
	source := &stubSource{
		accounts: []models.Account{{ID: "acc-1"}},
		txs:      map[string][]models.Transaction{"acc-1": {expenseTx("tx-1")}},
	}
	guard := newPostedGuard(t)
	svc := NewSyncService(source, f.pipeline, guard, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), quietLogger())

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Failed: 1}, result)

	has, err := guard.Has("tx-1")
	require.NoError(t, err)
	assert.False(t, has, "failed transactions must stay eligible for retry")

	count, err := f.ledger.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSync_SourceErrorAbortsRun(t *testing.T) {
	f := newFixture(t)
	source := &stubSource{err: errors.New("token expired")}
	svc := NewSyncService(source, f.pipeline, newPostedGuard(t), time.Time{}, quietLogger())

	_, err := svc.Run(context.Background())
	assert.Error(t, err)
}
