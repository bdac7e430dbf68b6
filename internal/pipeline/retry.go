package pipeline

import (
	"context"

	"github.com/riwaht/notion-revolut-server/internal/ledger"
	"github.com/riwaht/notion-revolut-server/internal/models"

	"github.com/sirupsen/logrus"
)

// RetryRunner replays every transaction in the failure ledger through the
// pipeline. It works on a snapshot of the ledger taken at the start of the
// run: entries re-recorded during the run are not picked up again until the
// next invocation.
type RetryRunner struct {
	ledger   *ledger.Ledger
	pipeline *Pipeline
	log      *logrus.Logger
}

// NewRetryRunner creates a retry runner over the given ledger and pipeline.
func NewRetryRunner(led *ledger.Ledger, p *Pipeline, logger *logrus.Logger) *RetryRunner {
	if logger == nil {
		logger = logrus.New()
	}
	return &RetryRunner{ledger: led, pipeline: p, log: logger}
}

// RetryAll replays all recorded failures, oldest first. Transactions that
// succeed are removed from the ledger by the pipeline; transactions that
// fail again stay recorded with an incremented retry count.
func (r *RetryRunner) RetryAll(ctx context.Context) (models.RetryResult, error) {
	entries, err := r.ledger.List()
	if err != nil {
		return models.RetryResult{}, err
	}
	if len(entries) == 0 {
		r.log.Info("Failure ledger is empty, nothing to retry")
		return models.RetryResult{}, nil
	}

	r.log.WithField("count", len(entries)).Info("Retrying failed transactions")

	var result models.RetryResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if _, err := r.pipeline.Process(ctx, entry.Transaction); err != nil {
			result.StillFailing++
			r.log.WithError(err).WithFields(logrus.Fields{
				"transaction": entry.Transaction.ShortID(),
				"retries":     entry.RetryCount + 1,
			}).Warn("Retry failed")
			continue
		}
		result.Succeeded++
	}

	r.log.WithFields(logrus.Fields{
		"succeeded":     result.Succeeded,
		"still_failing": result.StillFailing,
	}).Info("Retry run finished")
	return result, nil
}
