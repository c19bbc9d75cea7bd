package payment

import (
	"context"
	"strings"
	"sync"

	"auction-market/utils"
)

const stubPrefix = "stub_"

// StubProvider is a development provider. Payments stay PENDING until
// Settle marks a reference as paid, unless AutoSucceed is set.
type StubProvider struct {
	AutoSucceed bool

	mu   sync.Mutex
	paid map[string]bool
}

func NewStubProvider(autoSucceed bool) *StubProvider {
	return &StubProvider{AutoSucceed: autoSucceed, paid: make(map[string]bool)}
}

func (s *StubProvider) Name() string { return "MOCK" }

func (s *StubProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref := stubPrefix + utils.GenerateID()
	if s.AutoSucceed {
		s.Settle(ref)
		return &PaymentResponse{Reference: ref, Status: StatusSucceeded}, nil
	}
	return &PaymentResponse{
		Reference:   ref,
		Status:      StatusPending,
		CheckoutURL: "/checkout/" + ref,
	}, nil
}

// Settle records the reference as paid for later verification
func (s *StubProvider) Settle(reference string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paid == nil {
		s.paid = make(map[string]bool)
	}
	s.paid[reference] = true
}

func (s *StubProvider) VerifyPayment(ctx context.Context, reference string) (bool, error) {
	if !strings.HasPrefix(reference, stubPrefix) {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paid[reference], nil
}
