package biddingerrors

import "errors"

// Kind classifies an error for retry and presentation decisions
type Kind string

const (
	KindValidation          Kind = "validation"
	KindStateConflict       Kind = "state_conflict"
	KindConcurrencyConflict Kind = "concurrency_conflict"
	KindNotFound            Kind = "not_found"
	KindDuplicateSettlement Kind = "duplicate_settlement"
	KindStorageUnavailable  Kind = "storage_unavailable"
	KindProviderFailure     Kind = "provider_failure"
	KindInternal            Kind = "internal"
)

// Repository-level errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrConflict           = errors.New("concurrent modification detected")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// business logic errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidAmount     = errors.New("invalid bid amount")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrSelfBid           = errors.New("seller cannot bid on own product")
	ErrNotOwner          = errors.New("caller does not own the resource")
	ErrAuctionClosed     = errors.New("auction closed")
	ErrTooLateToWithdraw = errors.New("bid can no longer be withdrawn")
	ErrListingHasBids    = errors.New("listing has bids")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderNotPayable   = errors.New("order not payable")
	ErrPaymentInProgress = errors.New("payment already in progress")
	ErrInvariantViolated = errors.New("auction invariant violated")
)

// settlement errors
var (
	ErrDuplicateSettlement = errors.New("bid already settled")
	ErrProviderFailure     = errors.New("payment provider failure")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrConflict, KindConcurrencyConflict},
	{ErrStorageUnavailable, KindStorageUnavailable},
	{ErrDuplicateSettlement, KindDuplicateSettlement},
	{ErrProviderFailure, KindProviderFailure},
	{ErrInvalidInput, KindValidation},
	{ErrInvalidAmount, KindValidation},
	{ErrBidTooLow, KindValidation},
	{ErrSelfBid, KindValidation},
	{ErrNotOwner, KindValidation},
	{ErrAuctionClosed, KindStateConflict},
	{ErrTooLateToWithdraw, KindStateConflict},
	{ErrListingHasBids, KindStateConflict},
	{ErrInvalidTransition, KindStateConflict},
	{ErrOrderNotPayable, KindStateConflict},
	{ErrPaymentInProgress, KindStateConflict},
}

// KindOf returns the taxonomy entry for err, KindInternal when unknown
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Retryable reports whether the operation may succeed if repeated
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConcurrencyConflict, KindStorageUnavailable:
		return true
	default:
		return false
	}
}
