package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestRecorder tracks HTTP requests
type RequestRecorder interface {
	RequestStarted() func(method, route string, status int, duration time.Duration)
}

// Metrics instruments HTTP request counts and latency by route template
func Metrics(recorder RequestRecorder) gin.HandlerFunc {
	if recorder == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		done := recorder.RequestStarted()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		done(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
