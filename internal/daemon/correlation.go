package daemon

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	correlationIDKey  = "correlation_id"
	correlationHeader = "X-Correlation-ID"
)

// CorrelationMiddleware reuses an incoming X-Correlation-ID or generates
// one. The id is echoed on the response and forwarded to the platform.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(correlationHeader)
		if _, err := uuid.Parse(correlationID); err != nil {
			correlationID = uuid.New().String()
		}

		c.Set(correlationIDKey, correlationID)
		c.Header(correlationHeader, correlationID)

		c.Next()
	}
}

// GetCorrelationID returns an empty string outside CorrelationMiddleware.
func GetCorrelationID(c *gin.Context) string {
	if id, exists := c.Get(correlationIDKey); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}

func LogWithCorrelation(c *gin.Context) *logrus.Entry {
	return logrus.WithField(correlationIDKey, GetCorrelationID(c))
}
