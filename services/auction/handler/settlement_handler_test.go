package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"auction-market/internal/biddingerrors"
	"auction-market/internal/closer"
	model "auction-market/internal/models"
	"auction-market/internal/payment"
	"auction-market/internal/settlement"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

// Test InitiatePaymentHandler
func TestInitiatePaymentHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockSettlementServiceInterface(ctrl)
	handler := NewSettlementHandler(mockService, NewMockOperationsInterface(ctrl))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/orders/:order_id/payments", asUser("user1"), handler.InitiatePaymentHandler)

	now := time.Now().UTC()

	tests := []struct {
		name           string
		orderID        string
		mockSetup      func(orderID string)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:    "pending_payment",
			orderID: "o-pending",
			mockSetup: func(orderID string) {
				mockService.EXPECT().InitiatePayment(gomock.Any(), orderID, "user1").Return(model.Payment{
					ID: "pay1", OrderID: orderID, Provider: "MOCK", Reference: "stub_1",
					Status: model.PaymentStatusInitiated, CreatedAt: now,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "payment initiated successfully",
		},
		{
			name:    "provider_failure",
			orderID: "o-declined",
			mockSetup: func(orderID string) {
				mockService.EXPECT().InitiatePayment(gomock.Any(), orderID, "user1").
					Return(model.Payment{}, fmt.Errorf("settlement: %w - gateway timeout", biddingerrors.ErrProviderFailure))
			},
			expectedStatus: http.StatusBadGateway,
			expectedMsg:    "payment provider failure",
		},
		{
			name:    "payment_in_progress",
			orderID: "o-busy",
			mockSetup: func(orderID string) {
				mockService.EXPECT().InitiatePayment(gomock.Any(), orderID, "user1").Return(model.Payment{}, biddingerrors.ErrPaymentInProgress)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "payment already in progress",
		},
		{
			name:    "order_cancelled",
			orderID: "o-cancelled",
			mockSetup: func(orderID string) {
				mockService.EXPECT().InitiatePayment(gomock.Any(), orderID, "user1").Return(model.Payment{}, biddingerrors.ErrOrderNotPayable)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "order not payable",
		},
		{
			name:    "not_buyer",
			orderID: "o-foreign",
			mockSetup: func(orderID string) {
				mockService.EXPECT().InitiatePayment(gomock.Any(), orderID, "user1").Return(model.Payment{}, biddingerrors.ErrNotOwner)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "not allowed for this resource",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.mockSetup(tc.orderID)

			status, resp := serve(t, router, http.MethodPost, "/orders/"+tc.orderID+"/payments", nil)
			require.Equal(t, tc.expectedStatus, status)
			require.Contains(t, resp["message"], tc.expectedMsg)
		})
	}
}

// Test PaymentNotificationHandler
func TestPaymentNotificationHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockSettlementServiceInterface(ctrl)
	handler := NewSettlementHandler(mockService, NewMockOperationsInterface(ctrl))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/payments", handler.PaymentNotificationHandler)

	t.Run("success", func(t *testing.T) {
		mockService.EXPECT().
			HandleNotification(gomock.Any(), settlement.Notification{Reference: "stub_1", Status: payment.StatusSucceeded}).
			Return(model.Payment{ID: "pay1", Status: model.PaymentStatusSuccess}, nil)

		status, resp := serve(t, router, http.MethodPost, "/webhooks/payments", map[string]any{
			"reference": "stub_1",
			"status":    "SUCCEEDED",
		})
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "SUCCESS", resp["data"].(map[string]any)["status"])
	})

	t.Run("unknown_status", func(t *testing.T) {
		status, resp := serve(t, router, http.MethodPost, "/webhooks/payments", map[string]any{
			"reference": "stub_1",
			"status":    "REFUNDED",
		})
		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, resp["message"], "invalid request payload")
	})

	t.Run("unknown_reference", func(t *testing.T) {
		mockService.EXPECT().HandleNotification(gomock.Any(), gomock.Any()).Return(model.Payment{}, biddingerrors.ErrNotFound)

		status, _ := serve(t, router, http.MethodPost, "/webhooks/payments", map[string]any{
			"reference": "stub_missing",
			"status":    "FAILED",
		})
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("late_success_after_failure", func(t *testing.T) {
		mockService.EXPECT().HandleNotification(gomock.Any(), gomock.Any()).Return(model.Payment{}, biddingerrors.ErrInvalidTransition)

		status, resp := serve(t, router, http.MethodPost, "/webhooks/payments", map[string]any{
			"reference": "stub_2",
			"status":    "SUCCEEDED",
		})
		require.Equal(t, http.StatusConflict, status)
		require.Contains(t, resp["message"], "operation not allowed in current state")
	})
}

// Test SweepHandler and ReconcileHandler
func TestOperationsHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOps := NewMockOperationsInterface(ctrl)
	handler := NewSettlementHandler(NewMockSettlementServiceInterface(ctrl), mockOps)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/admin/sweep", handler.SweepHandler)
	router.POST("/admin/reconcile", handler.ReconcileHandler)

	t.Run("sweep", func(t *testing.T) {
		mockOps.EXPECT().Sweep(gomock.Any()).Return(closer.SweepResult{Closed: 2, Expired: 1}, nil)

		status, resp := serve(t, router, http.MethodPost, "/admin/sweep", nil)
		require.Equal(t, http.StatusOK, status)
		data := resp["data"].(map[string]any)
		require.Equal(t, float64(2), data["closed"])
		require.Equal(t, float64(1), data["expired"])
	})

	t.Run("sweep_lock_error", func(t *testing.T) {
		mockOps.EXPECT().Sweep(gomock.Any()).Return(closer.SweepResult{}, errors.New("redis down"))

		status, resp := serve(t, router, http.MethodPost, "/admin/sweep", nil)
		require.Equal(t, http.StatusInternalServerError, status)
		require.NotContains(t, resp["error"], "redis")
	})

	t.Run("reconcile", func(t *testing.T) {
		mockOps.EXPECT().Reconcile(gomock.Any()).Return(settlement.Report{OrdersRepaired: 1}, nil)

		status, resp := serve(t, router, http.MethodPost, "/admin/reconcile", nil)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, float64(1), resp["data"].(map[string]any)["orders_repaired"])
	})
}
