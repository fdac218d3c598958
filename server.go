package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/config"
	"bitbucket.org/shoppulse/dashboard_backend/middlewares"
	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/storefront"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("shoppulse-dashboard")

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(middlewares.TracingMiddleware(tracer))
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist; allow all elsewhere.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("X-Business-Id", "X-Webhook-Topic", "x-correlation-id", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "x-correlation-id")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.BusinessMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedis()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func registerRoutes(r *gin.Engine) {
	// Storefront connection and sync.
	r.GET("/storefront/status", storefront.StatusHandler())
	r.POST("/storefront/connect", storefront.ConnectHandler())
	r.POST("/storefront/disconnect", storefront.DisconnectHandler())
	r.POST("/storefront/sync", storefront.SyncHandler())
	r.POST("/storefront/sync-range", storefront.TriggerRangeSyncHandler())
	r.GET("/storefront/sync-runs", storefront.SyncHistoryHandler())
	r.GET("/storefront/sync-runs/:id", storefront.SyncRunDetailHandler())
	r.POST("/storefront/sync-runs/:id/retry", storefront.RetrySyncRunHandler())
	r.POST("/storefront/pubsub", storefront.PubSubPushHandler())

	// Webhooks and bulk platform writes.
	r.POST("/webhooks/orders", storefront.WebhookHandler())
	r.POST("/storefront/prices", storefront.UpdatePricesHandler())

	// Dashboard reads.
	r.GET("/dashboard/monthly-summary", storefront.MonthlySummaryHandler())
	r.GET("/dashboard/statistics", storefront.StatisticsHandler())
	r.GET("/dashboard/order-changes", storefront.OrderChangesHandler())
	r.POST("/dashboard/order-changes/mark-read", storefront.MarkOrderChangesReadHandler())

	// Settings and manual figures.
	r.GET("/settings", storefront.GetSettingsHandler())
	r.PUT("/settings", storefront.UpdateSettingsHandler())
	r.PUT("/snapshots/ad-costs", storefront.UpdateAdCostsHandler())

	// Manual cost inputs.
	r.POST("/costs/salaries", storefront.CreateSalaryHandler())
	r.GET("/costs/salaries", storefront.ListSalariesHandler())
	r.DELETE("/costs/salaries/:id", storefront.DeleteSalaryHandler())
	r.POST("/costs/vat-expenses", storefront.CreateVatExpenseHandler())
	r.GET("/costs/vat-expenses", storefront.ListVatExpensesHandler())
	r.DELETE("/costs/vat-expenses/:id", storefront.DeleteVatExpenseHandler())
	r.POST("/costs/general-expenses", storefront.CreateGeneralExpenseHandler())
	r.GET("/costs/general-expenses", storefront.ListGeneralExpensesHandler())
	r.DELETE("/costs/general-expenses/:id", storefront.DeleteGeneralExpenseHandler())
	r.POST("/costs/refunds", storefront.CreateRefundHandler())
	r.GET("/costs/refunds", storefront.ListRefundsHandler())
	r.DELETE("/costs/refunds/:id", storefront.DeleteRefundHandler())
	r.POST("/costs/item-shipping", storefront.CreateItemShippingCostHandler())
	r.GET("/costs/item-shipping", storefront.ListItemShippingCostsHandler())
	r.DELETE("/costs/item-shipping/:id", storefront.DeleteItemShippingCostHandler())
}

// customErrorLogger logs only requests that collected errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
