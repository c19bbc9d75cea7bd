package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the provider's view of a payment
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

type PaymentRequest struct {
	PaymentID      string
	OrderID        string
	BuyerID        string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	Description    string
}

// PaymentResponse is returned by InitiatePayment. A PENDING status means the
// outcome arrives later through a notification.
type PaymentResponse struct {
	Reference     string
	Status        Status
	CheckoutURL   string
	FailureReason string
}

type Provider interface {
	Name() string
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	VerifyPayment(ctx context.Context, reference string) (bool, error)
}

// New returns the provider registered under name. MOCK keeps payments
// pending until settled; MOCK_AUTO settles them on initiation.
func New(name string) (Provider, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "MOCK":
		return NewStubProvider(false), nil
	case "MOCK_AUTO":
		return NewStubProvider(true), nil
	default:
		return nil, fmt.Errorf("payment: unknown provider %q", name)
	}
}
