package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"auction-market/internal/auth"
	bidding "auction-market/internal/biddingService"
	"auction-market/internal/clock"
	"auction-market/internal/closer"
	"auction-market/internal/events"
	model "auction-market/internal/models"
	"auction-market/internal/payment"
	"auction-market/internal/query"
	"auction-market/internal/repository"
	"auction-market/internal/server"
	"auction-market/internal/settlement"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret     = "integration-secret"
	testIssuer        = "auction-market"
	testWebhookSecret = "integration-hook"
)

// TestEnv is a fully wired application backed by the in-memory store
type TestEnv struct {
	Router   *gin.Engine
	Repo     *repository.MemoryRepo
	Clock    *clock.Fake
	Provider *payment.StubProvider
}

// SetupTestEnv initializes the router with in-memory repository for integration testing.
func SetupTestEnv(t *testing.T, products ...model.Product) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	for _, p := range products {
		repo.AddProduct(p)
	}

	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	retry := repository.DefaultRetryPolicy()
	publisher := events.NewLogPublisher()
	provider := payment.NewStubProvider(false)

	coordinator := settlement.NewCoordinator(repo, clk, provider, publisher, retry, settlement.Config{
		MaxAttempts:    3,
		Currency:       "USD",
		PaymentTimeout: 48 * time.Hour,
	})
	reconciler := settlement.NewReconciler(repo, clk, coordinator, provider, retry)
	auctionCloser := closer.NewCloser(repo, clk, coordinator, publisher, closer.NoopLock{}, retry, closer.Config{
		BatchSize: 10,
		Workers:   2,
	})

	router := server.SetupRouter(server.Services{
		Bidding:    bidding.NewBiddingService(repo, clk, publisher, retry),
		Queries:    query.NewFacade(repo, query.NewStaticCatalog(), retry),
		Settlement: coordinator,
		Operations: server.Operations{Closer: auctionCloser, Reconciler: reconciler},
	}, server.AuthConfig{
		JWTSecret:     testJWTSecret,
		Issuer:        testIssuer,
		WebhookSecret: testWebhookSecret,
	})

	return &TestEnv{Router: router, Repo: repo, Clock: clk, Provider: provider}
}

// Token issues a bearer token for the given user
func Token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testJWTSecret, testIssuer, userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

// ExecuteRequestAndParse executes an HTTP request on the given router and
// returns the decoded envelope. Headers are applied as given.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any, headers map[string]string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// AsUser builds the authorization header for a caller
func AsUser(t *testing.T, userID string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + Token(t, userID, auth.RoleUser)}
}

// AsAdmin builds the authorization header for an operator
func AsAdmin(t *testing.T) map[string]string {
	return map[string]string{"Authorization": "Bearer " + Token(t, "ops", auth.RoleAdmin)}
}

func data(resp map[string]any) map[string]any {
	return resp["data"].(map[string]any)
}
