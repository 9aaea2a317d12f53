package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/middleware"
)

// CreditHandler handles credit-related HTTP requests
type CreditHandler struct {
	creditUseCase usecase.CreditUseCase
	logger        coreport.Logger
}

// NewCreditHandler creates a new credit handler instance
func NewCreditHandler(creditUseCase usecase.CreditUseCase, logger coreport.Logger) *CreditHandler {
	return &CreditHandler{
		creditUseCase: creditUseCase,
		logger:        logger,
	}
}

// GetCredits handles the GET /api/user/credits endpoint
func (h *CreditHandler) GetCredits(c *gin.Context) {
	credits, err := h.creditUseCase.GetBalance(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "Error getting user credits", err)
		return
	}

	c.JSON(http.StatusOK, dto.CreditsResponse{Credits: credits})
}

// InitUser handles the POST /api/user/init endpoint
func (h *CreditHandler) InitUser(c *gin.Context) {
	result, err := h.creditUseCase.InitializeUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "Error initializing user", err)
		return
	}

	message := "User initialized successfully"
	if !result.Granted {
		message = "User already initialized"
	}
	c.JSON(http.StatusOK, dto.InitResponse{
		Success: true,
		Credits: result.Credits,
		Granted: result.Granted,
		Message: message,
	})
}

// Recharge handles the POST /api/user/recharge endpoint
func (h *CreditHandler) Recharge(c *gin.Context) {
	var req dto.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, "Invalid recharge request",
			fmt.Errorf("%w: %s", domainerr.ErrInvalidCredits, err.Error()))
		return
	}

	credits, err := h.creditUseCase.Recharge(c.Request.Context(), middleware.UserID(c), req.Credits)
	if err != nil {
		respondError(c, h.logger, "Error recharging credits", err)
		return
	}

	c.JSON(http.StatusOK, dto.RechargeResponse{
		Success: true,
		Credits: credits,
		Message: fmt.Sprintf("Recharged %d credits", req.Credits),
	})
}
