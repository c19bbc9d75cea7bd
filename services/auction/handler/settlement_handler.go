package handler

import (
	"context"
	"net/http"

	"auction-market/internal/closer"
	model "auction-market/internal/models"
	"auction-market/internal/payment"
	"auction-market/internal/settlement"
	"auction-market/services/auction/helpers"
	"auction-market/utils"

	"github.com/gin-gonic/gin"
)

type SettlementServiceInterface interface {
	InitiatePayment(ctx context.Context, orderID, buyerID string) (model.Payment, error)
	HandleNotification(ctx context.Context, n settlement.Notification) (model.Payment, error)
}

type OperationsInterface interface {
	Sweep(ctx context.Context) (closer.SweepResult, error)
	Reconcile(ctx context.Context) (settlement.Report, error)
}

type SettlementHandler struct {
	service SettlementServiceInterface
	ops     OperationsInterface
}

func NewSettlementHandler(service SettlementServiceInterface, ops OperationsInterface) *SettlementHandler {
	return &SettlementHandler{service: service, ops: ops}
}

// InitiatePaymentHandler handles POST /orders/:order_id/payments
func (h *SettlementHandler) InitiatePaymentHandler(c *gin.Context) {
	orderID := c.Param("order_id")
	buyerID := helpers.CurrentUserID(c)

	pay, err := h.service.InitiatePayment(c.Request.Context(), orderID, buyerID)
	if err != nil {
		helpers.HandleServiceError(c, "InitiatePaymentHandler", err, map[string]any{
			"order_id": orderID,
			"buyer_id": buyerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewPaymentResponse(pay), "payment initiated successfully")
	helpers.LogSuccess("InitiatePaymentHandler", "payment initiated successfully", map[string]any{
		"order_id":   orderID,
		"payment_id": pay.ID,
		"status":     string(pay.Status),
	})
}

// PaymentNotificationHandler handles POST /webhooks/payments
func (h *SettlementHandler) PaymentNotificationHandler(c *gin.Context) {
	var req helpers.PaymentNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PaymentNotificationHandler", err)
		return
	}

	pay, err := h.service.HandleNotification(c.Request.Context(), settlement.Notification{
		Reference:     req.Reference,
		Status:        payment.Status(req.Status),
		FailureReason: req.FailureReason,
	})
	if err != nil {
		helpers.HandleServiceError(c, "PaymentNotificationHandler", err, map[string]any{
			"reference": req.Reference,
			"status":    req.Status,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewPaymentResponse(pay), "notification processed")
}

// SweepHandler handles POST /admin/sweep
func (h *SettlementHandler) SweepHandler(c *gin.Context) {
	res, err := h.ops.Sweep(c.Request.Context())
	if err != nil {
		helpers.HandleServiceError(c, "SweepHandler", err, nil)
		return
	}
	utils.JSONResponse(c, http.StatusOK, res, "sweep completed")
}

// ReconcileHandler handles POST /admin/reconcile
func (h *SettlementHandler) ReconcileHandler(c *gin.Context) {
	report, err := h.ops.Reconcile(c.Request.Context())
	if err != nil {
		helpers.HandleServiceError(c, "ReconcileHandler", err, nil)
		return
	}
	utils.JSONResponse(c, http.StatusOK, report, "reconciliation completed")
}
