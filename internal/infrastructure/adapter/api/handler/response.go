package handler

import (
	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/middleware"
)

// logFielder is implemented by the detailed domain errors
type logFielder interface {
	LogFields() map[string]any
}

// respondError logs the failure and writes the standardized error body
func respondError(c *gin.Context, logger coreport.Logger, message string, err error) {
	fields := map[string]any{
		"error":      err.Error(),
		"error_code": domainerr.ErrorCode(err),
		"request_id": middleware.GetRequestID(c),
	}
	if userID := middleware.UserID(c); userID != "" {
		fields["userId"] = userID
	}
	if detailed, ok := err.(logFielder); ok {
		for k, v := range detailed.LogFields() {
			fields[k] = v
		}
	}

	if middleware.StatusCode(err) >= 500 {
		logger.Error(message, fields)
	} else {
		logger.Debug(message, fields)
	}
	middleware.AbortWithError(c, err)
}
