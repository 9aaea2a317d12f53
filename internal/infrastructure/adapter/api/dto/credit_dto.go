package dto

// CreditsResponse represents the API response for a user's balance
type CreditsResponse struct {
	Credits int64 `json:"credits"`
}

// InitResponse represents the API response for a first-access grant
type InitResponse struct {
	Success bool   `json:"success"`
	Credits int64  `json:"credits"`
	Granted bool   `json:"granted"`
	Message string `json:"message"`
}

// RechargeRequest represents the API request for adding credits
type RechargeRequest struct {
	Credits int64 `json:"credits" binding:"required,gt=0"`
}

// RechargeResponse represents the API response for a recharge
type RechargeResponse struct {
	Success bool   `json:"success"`
	Credits int64  `json:"credits"`
	Message string `json:"message"`
}
