package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(webhook *handlers.WebhookHandler, ledgerAPI *handlers.LedgerHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/webhook", webhook.Verify)
	r.POST("/webhook", webhook.Receive)
	r.POST("/send-message", webhook.SendMessage)

	api := r.Group("/api")
	{
		api.GET("/entries", ledgerAPI.ListEntries)
		api.DELETE("/entries/:id", ledgerAPI.DeleteEntry)
		api.GET("/summaries", ledgerAPI.ListSummaries)
		api.GET("/history", ledgerAPI.GetHistory)
		api.GET("/low-stock", ledgerAPI.ListLowStock)
		api.GET("/requisition", ledgerAPI.GetRequisition)
		api.GET("/requisition/latest", ledgerAPI.GetLatestSnapshot)
		api.GET("/reports/consumption", ledgerAPI.GetConsumption)

		drafts := api.Group("/drafts")
		drafts.POST("/new", ledgerAPI.NewDraft)
		drafts.POST("/edit/:id", ledgerAPI.EditDraft)
		drafts.POST("/identity", ledgerAPI.ChangeIdentity)
		drafts.POST("/quantities", ledgerAPI.ChangeQuantities)
		drafts.POST("/cancel", ledgerAPI.CancelDraft)
		drafts.POST("/commit", ledgerAPI.CommitDraft)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
