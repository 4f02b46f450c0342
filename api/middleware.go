package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserHeader carries the authenticated user id set by the gateway in front
// of this service.
const UserHeader = "X-User-ID"

// RequestLogger logs one line per request and any errors handlers attached
// with c.Error.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			log.Error("request failed", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetHeader(UserHeader))
	if err != nil || id == uuid.Nil {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing or invalid " + UserHeader, Code: "unauthenticated"})
		return uuid.Nil, false
	}
	return id, true
}
