package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-market/internal/biddingerrors"
	"auction-market/utils"

	"github.com/gin-gonic/gin"
)

// gin context keys set by the authentication middleware
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid amount"
	case errors.Is(err, biddingerrors.ErrSelfBid):
		return http.StatusBadRequest, "seller cannot bid on own product"
	case errors.Is(err, biddingerrors.ErrNotOwner):
		return http.StatusForbidden, "not allowed for this resource"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return http.StatusConflict, "auction closed"
	case errors.Is(err, biddingerrors.ErrTooLateToWithdraw):
		return http.StatusConflict, "bid can no longer be withdrawn"
	case errors.Is(err, biddingerrors.ErrListingHasBids):
		return http.StatusConflict, "listing has bids"
	case errors.Is(err, biddingerrors.ErrPaymentInProgress):
		return http.StatusConflict, "payment already in progress"
	case errors.Is(err, biddingerrors.ErrOrderNotPayable):
		return http.StatusConflict, "order not payable"
	}

	switch biddingerrors.KindOf(err) {
	case biddingerrors.KindValidation:
		return http.StatusBadRequest, "invalid request details"
	case biddingerrors.KindNotFound:
		return http.StatusNotFound, "resource not found"
	case biddingerrors.KindStateConflict:
		return http.StatusConflict, "operation not allowed in current state"
	case biddingerrors.KindConcurrencyConflict:
		return http.StatusConflict, "concurrent update, please retry"
	case biddingerrors.KindDuplicateSettlement:
		return http.StatusConflict, "already settled"
	case biddingerrors.KindStorageUnavailable:
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	case biddingerrors.KindProviderFailure:
		return http.StatusBadGateway, "payment provider failure"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// HandleServiceError writes the mapped error response and logs the failure.
// Only business rule failures carry the wrapped chain to the client; the
// full error is always logged.
func HandleServiceError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	clientErr := errors.New(message)
	if exposesDetail(err, status) {
		clientErr = fmt.Errorf("%s: %w", message, err)
	}
	utils.JSONError(c, status, clientErr, message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// exposesDetail reports whether the error chain is safe to return. Storage,
// driver and lookup errors can name tables, keys or ids.
func exposesDetail(err error, status int) bool {
	if status >= http.StatusInternalServerError {
		return false
	}
	switch biddingerrors.KindOf(err) {
	case biddingerrors.KindConcurrencyConflict, biddingerrors.KindStorageUnavailable,
		biddingerrors.KindInternal, biddingerrors.KindNotFound:
		return false
	}
	return true
}

// CurrentUserID returns the authenticated caller
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
