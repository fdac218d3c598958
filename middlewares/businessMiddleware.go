package middlewares

import (
	"strings"

	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMiddleware resolves the tenant for the request from the
// X-Business-Id header (query param fallback) and stashes it in the request
// context so the tenant guard scopes every query. Requests without a business
// id pass through; handlers decide whether that is acceptable.
func BusinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId := strings.TrimSpace(c.GetHeader("X-Business-Id"))
		if businessId == "" {
			businessId = strings.TrimSpace(c.Query("business_id"))
		}
		if businessId != "" {
			ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// CorrelationMiddleware attaches a correlation id to every request, generating
// one when the caller did not send an x-correlation-id header.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := strings.TrimSpace(c.GetHeader("x-correlation-id"))
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("x-correlation-id", cid)
		c.Next()
	}
}

// TracingMiddleware opens one span per request so handler DB work (traced by
// the otelgorm plugin) hangs off a request root.
func TracingMiddleware(tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.End()
	}
}
