package repository

import (
	"context"
	"time"

	"auction-market/internal/biddingerrors"
	"auction-market/internal/metrics"
	"auction-market/utils"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a conflicting transaction is re-run
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy allows five retries starting at 5ms
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      5,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

// Retry runs fn in a transaction and repeats it with exponential backoff
// while it fails with ErrConflict or ErrStorageUnavailable. Any other error
// is returned at once. fn may run several times, so it must reset any
// state it captures from a previous attempt.
func Retry(ctx context.Context, store LedgerStore, policy RetryPolicy, fn func(tx LedgerTx) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = policy.InitialInterval
	eb.MaxInterval = policy.MaxInterval
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(eb, policy.MaxRetries)
	b = backoff.WithContext(b, ctx)

	op := func() error {
		err := store.WithTransaction(ctx, fn)
		if err != nil && !biddingerrors.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		metrics.RecordTxRetry()
		utils.Warn("retrying ledger transaction", map[string]any{
			"error": err.Error(),
			"wait":  wait.String(),
		})
	}

	return backoff.RetryNotify(op, b, notify)
}
