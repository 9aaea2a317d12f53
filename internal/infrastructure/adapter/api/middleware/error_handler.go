package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/dto"
)

// StatusCode maps a domain error to its HTTP status
func StatusCode(err error) int {
	switch domainerr.ErrorCode(err) {
	case domainerr.CodeInvalidInput:
		return http.StatusBadRequest
	case domainerr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domainerr.CodeInsufficientCredits:
		return http.StatusPaymentRequired
	case domainerr.CodeGenerationNotFound:
		return http.StatusNotFound
	case domainerr.CodeGenerationFailed:
		return http.StatusUnprocessableEntity
	case domainerr.CodeUnknownTaskState, domainerr.CodeUpstream:
		return http.StatusBadGateway
	case domainerr.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the error body; server-side details are not exposed
func NewErrorResponse(err error) dto.ErrorResponse {
	code := domainerr.ErrorCode(err)
	message := err.Error()
	if code == domainerr.CodePersistence {
		message = "Internal server error"
	}
	return dto.ErrorResponse{
		Code:    code,
		Error:   domainerr.Kind(err),
		Message: message,
	}
}

// AbortWithError writes the error response and stops the handler chain
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusCode(err), NewErrorResponse(err))
}

// ErrorHandler middleware recovers from panics and returns appropriate error responses
func ErrorHandler(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered in API request", map[string]any{
					"error":      err,
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"client_ip":  c.ClientIP(),
					"request_id": GetRequestID(c),
					"user_agent": c.Request.UserAgent(),
				})

				c.AbortWithStatusJSON(http.StatusInternalServerError, NewErrorResponse(domainerr.ErrPersistence))
			}
		}()

		c.Next()
	}
}
