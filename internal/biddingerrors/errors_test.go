package biddingerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err       error
		kind      Kind
		retryable bool
	}{
		{fmt.Errorf("tx: %w", ErrConflict), KindConcurrencyConflict, true},
		{fmt.Errorf("%w: connection reset", ErrStorageUnavailable), KindStorageUnavailable, true},
		{ErrNotFound, KindNotFound, false},
		{ErrBidTooLow, KindValidation, false},
		{ErrAuctionClosed, KindStateConflict, false},
		{ErrDuplicateSettlement, KindDuplicateSettlement, false},
		{ErrProviderFailure, KindProviderFailure, false},
		{errors.New("unexpected"), KindInternal, false},
		{nil, KindInternal, false},
	}

	for _, tc := range tests {
		require.Equal(t, tc.kind, KindOf(tc.err), "%v", tc.err)
		require.Equal(t, tc.retryable, Retryable(tc.err), "%v", tc.err)
	}
}
