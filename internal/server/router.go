package server

import (
	"net/http"

	"auction-market/internal/auth"
	"auction-market/internal/metrics"
	handler "auction-market/services/auction/handler"
	"auction-market/utils"

	"github.com/gin-gonic/gin"
)

// Services groups what the HTTP surface exposes
type Services struct {
	Bidding    handler.BiddingServiceInterface
	Queries    handler.QueryServiceInterface
	Settlement handler.SettlementServiceInterface
	Operations handler.OperationsInterface
}

// AuthConfig holds the secrets the router verifies callers with
type AuthConfig struct {
	JWTSecret     string
	Issuer        string
	WebhookSecret string
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services, authCfg AuthConfig) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(metrics.MetricsMiddleware())

	auctionHandler := handler.NewAuctionHandler(svc.Bidding, svc.Queries)
	settlementHandler := handler.NewSettlementHandler(svc.Settlement, svc.Operations)

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
	})
	router.GET("/metrics", metrics.PrometheusHandler())

	router.GET("/products/:product_id", auctionHandler.GetProductHandler)

	webhooks := router.Group("/webhooks", WebhookSecretMiddleware(authCfg.WebhookSecret))
	{
		webhooks.POST("/payments", settlementHandler.PaymentNotificationHandler)
	}

	authed := router.Group("", AuthMiddleware(authCfg.JWTSecret, authCfg.Issuer))

	products := authed.Group("/products")
	{
		products.POST("", auctionHandler.CreateListingHandler)
		products.DELETE("/:product_id", auctionHandler.DeleteListingHandler)
		products.POST("/:product_id/bids", auctionHandler.PlaceBidHandler)
	}

	bids := authed.Group("/bids")
	{
		bids.DELETE("/:bid_id", auctionHandler.WithdrawBidHandler)
	}

	orders := authed.Group("/orders")
	{
		orders.POST("/:order_id/payments", settlementHandler.InitiatePaymentHandler)
	}

	me := authed.Group("/me")
	{
		me.GET("/bids", auctionHandler.GetMyBidsHandler)
		me.GET("/sales", auctionHandler.GetMySalesHandler)
		me.GET("/orders", auctionHandler.GetMyOrdersHandler)
	}

	admin := authed.Group("/admin", RequireRole(auth.RoleAdmin))
	{
		admin.POST("/sweep", settlementHandler.SweepHandler)
		admin.POST("/reconcile", settlementHandler.ReconcileHandler)
	}

	return router
}
