package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/toneforge/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodyBytes caps request bodies at 1 MiB, which comfortably fits
// the largest generation payload
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit rejects requests whose body exceeds maxBytes
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "request body too large"))
			return
		}

		// Guard against chunked bodies that omit Content-Length
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
