package dto

import (
	"time"
)

// GenerateRequest represents the API request for a new generation
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Wait   bool   `json:"wait"` // Block until the images are ready
}

// GenerationAcceptedResponse is returned when a generation is queued
type GenerationAcceptedResponse struct {
	TaskID  string `json:"taskId"`
	Status  string `json:"status"`
	Credits int64  `json:"credits"` // Balance after the reservation
}

// GenerationResponse is returned when a generation finished synchronously
type GenerationResponse struct {
	TaskID string   `json:"taskId"`
	Status string   `json:"status"`
	Images []string `json:"images"`
}

// TaskStatusResponse is the owner's view of a generation task
type TaskStatusResponse struct {
	TaskID       string   `json:"taskId"`
	Status       string   `json:"status"`
	RemoteStatus string   `json:"remoteStatus,omitempty"`
	Images       []string `json:"images"`
	Message      string   `json:"message,omitempty"`
}

// HistoryEntry is one completed generation
type HistoryEntry struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Images      []string  `json:"images"`
	Status      string    `json:"status"`
	CreditsUsed int64     `json:"creditsUsed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PaginationResponse describes the returned page
type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// HistoryResponse represents the API response for the history listing
type HistoryResponse struct {
	History    []HistoryEntry     `json:"history"`
	Pagination PaginationResponse `json:"pagination"`
}

// LegacyTaskResponse mirrors the provider's task payload for the legacy routes
type LegacyTaskResponse struct {
	Output LegacyTaskOutput `json:"output"`
}

// LegacyTaskOutput is the output block of LegacyTaskResponse
type LegacyTaskOutput struct {
	TaskID     string            `json:"task_id"`
	TaskStatus string            `json:"task_status"`
	Results    []LegacyTaskImage `json:"results,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// LegacyTaskImage is one result of LegacyTaskOutput
type LegacyTaskImage struct {
	URL string `json:"url"`
}
