package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing instruments requests with OpenTelemetry spans
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceEnrichment annotates the active span with authenticated request
// attributes. Must run after JWT authentication.
func TraceEnrichment() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.SpanContext().IsValid() {
			if orgID := GetJWTOrgID(c); orgID != "" {
				span.SetAttributes(attribute.String("org.id", orgID))
			}
			if userID := GetJWTUserID(c); userID != "" {
				span.SetAttributes(attribute.String("user.id", userID))
			}
			if requestID := c.GetString("request_id"); requestID != "" {
				span.SetAttributes(attribute.String("request.id", requestID))
			}
		}
		c.Next()
	}
}
