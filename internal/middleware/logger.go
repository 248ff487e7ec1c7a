package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id, stores a request-scoped log entry in the context and
// logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set(requestIDHeader, reqID)

		entry := logrus.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(logger.ToContext(c.Request.Context(), entry))

		c.Next()

		fields := logrus.Fields{
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}
		if uid := c.GetInt64(ctxUserID); uid != 0 {
			fields["user_id"] = uid
		}
		l := entry.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			l.Error("request completed")
		case status >= http.StatusBadRequest:
			l.Warn("request completed")
		default:
			l.Info("request completed")
		}
	}
}

// ErrorLogger logs detailed error information and recovers from panics.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				logRequestError(c, start, "panic", err.Error(), debug.Stack())

				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				c.Abort()
				return
			}

			for _, err := range c.Errors {
				logRequestError(c, start, fmt.Sprintf("%v", err.Type), err.Error(), nil)
			}
		}()

		c.Next()
	}
}

func logRequestError(c *gin.Context, start time.Time, errType string, message string, stack []byte) {
	l := logger.FromContext(c.Request.Context()).WithFields(logrus.Fields{
		"type":      errType,
		"status":    c.Writer.Status(),
		"query":     c.Request.URL.RawQuery,
		"client_ip": c.ClientIP(),
		"role":      c.GetString(ctxRole),
		"latency":   time.Since(start).String(),
	})
	if stack != nil {
		l = l.WithField("stack", string(stack))
	}
	l.Error(message)
}
