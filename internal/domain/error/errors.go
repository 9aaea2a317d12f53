package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvalidInput        = 4000
	CodeUnauthenticated     = 4010
	CodeInsufficientCredits = 4020
	CodeGenerationNotFound  = 4040
	CodeGenerationFailed    = 4220

	// 5xxx - Server errors
	CodePersistence      = 5000
	CodeUnknownTaskState = 5020
	CodeUpstream         = 5021
	CodeTimeout          = 5040
)

// Stable error kinds exposed to API clients
const (
	KindInvalidInput        = "INVALID_INPUT"
	KindUnauthenticated     = "UNAUTHENTICATED"
	KindInsufficientCredits = "INSUFFICIENT_CREDITS"
	KindNotFound            = "NOT_FOUND"
	KindGenerationFailed    = "GENERATION_FAILED"
	KindUnknownTaskState    = "UNKNOWN_TASK_STATE"
	KindUpstream            = "UPSTREAM_ERROR"
	KindTimeout             = "TIMEOUT"
	KindPersistence         = "PERSISTENCE_ERROR"
)

// Base error types
var (
	// ErrInvalidInput is returned for bad caller input; nothing has been mutated
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyPrompt is returned when the prompt is blank after trimming
	ErrEmptyPrompt = fmt.Errorf("%w: prompt cannot be empty", ErrInvalidInput)

	// ErrPromptTooLong is returned when the prompt exceeds the configured length
	ErrPromptTooLong = fmt.Errorf("%w: prompt is too long", ErrInvalidInput)

	// ErrInvalidCredits is returned when a credit amount is not positive
	ErrInvalidCredits = fmt.Errorf("%w: credits must be greater than 0", ErrInvalidInput)

	// ErrInvalidTaskID is returned when the remote task id is empty
	ErrInvalidTaskID = fmt.Errorf("%w: task ID cannot be empty", ErrInvalidInput)

	// ErrInvalidPagination is returned for malformed page parameters
	ErrInvalidPagination = fmt.Errorf("%w: invalid pagination parameters", ErrInvalidInput)

	// ErrUnauthenticated is returned when no user identity can be resolved
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInsufficientCredits is returned when the balance cannot cover a generation
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrGenerationNotFound is returned when no local generation matches a task
	ErrGenerationNotFound = errors.New("generation not found")

	// ErrUpstream is returned when the image provider answers with a non-success status
	ErrUpstream = errors.New("upstream provider error")

	// ErrGenerationFailed is returned when the remote task ends in FAILED
	ErrGenerationFailed = errors.New("image generation failed")

	// ErrUnknownTaskState is returned when the provider reports a status outside the contract
	ErrUnknownTaskState = errors.New("unknown remote task state")

	// ErrTimeout is returned when a task does not reach a terminal state within the poll budget
	ErrTimeout = errors.New("generation timed out")

	// ErrPersistence is returned when the store is unavailable or a write fails
	ErrPersistence = errors.New("persistence error")

	// ErrInvalidStateTransition is returned when a generation leaves a terminal state
	ErrInvalidStateTransition = errors.New("invalid generation state transition")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrInsufficientCredits):
		return CodeInsufficientCredits
	case errors.Is(err, ErrGenerationNotFound):
		return CodeGenerationNotFound
	case errors.Is(err, ErrGenerationFailed):
		return CodeGenerationFailed
	case errors.Is(err, ErrUnknownTaskState):
		return CodeUnknownTaskState
	case errors.Is(err, ErrUpstream):
		return CodeUpstream
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	default:
		return CodePersistence
	}
}

// Kind returns the stable error kind for known errors
func Kind(err error) string {
	switch ErrorCode(err) {
	case CodeInvalidInput:
		return KindInvalidInput
	case CodeUnauthenticated:
		return KindUnauthenticated
	case CodeInsufficientCredits:
		return KindInsufficientCredits
	case CodeGenerationNotFound:
		return KindNotFound
	case CodeGenerationFailed:
		return KindGenerationFailed
	case CodeUnknownTaskState:
		return KindUnknownTaskState
	case CodeUpstream:
		return KindUpstream
	case CodeTimeout:
		return KindTimeout
	default:
		return KindPersistence
	}
}

// InsufficientCreditsError provides detailed error information for a rejected deduction
type InsufficientCreditsError struct {
	UserID   string
	Required int64
}

// Error implements the error interface
func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits for user %s: required %d", e.UserID, e.Required)
}

// Is checks if the target error is an ErrInsufficientCredits
func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientCreditsError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "insufficient_credits",
		"user_id":    e.UserID,
		"required":   e.Required,
		"error_code": CodeInsufficientCredits,
	}
}

// NewInsufficientCreditsError creates a new detailed insufficient credits error
func NewInsufficientCreditsError(userID string, required int64) error {
	return &InsufficientCreditsError{UserID: userID, Required: required}
}

// UpstreamError carries the provider's HTTP status and error payload
type UpstreamError struct {
	Operation    string
	StatusCode   int
	ProviderCode string
	Message      string
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.ProviderCode != "" {
		return fmt.Sprintf("upstream %s failed with status %d (%s): %s",
			e.Operation, e.StatusCode, e.ProviderCode, e.Message)
	}
	return fmt.Sprintf("upstream %s failed with status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// Is checks if the target error is an ErrUpstream
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Transient reports whether retrying the same call may succeed
func (e *UpstreamError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// LogFields returns a map of fields for structured logging
func (e *UpstreamError) LogFields() map[string]any {
	return map[string]any{
		"error_type":    "upstream_error",
		"operation":     e.Operation,
		"status_code":   e.StatusCode,
		"provider_code": e.ProviderCode,
		"message":       e.Message,
		"error_code":    CodeUpstream,
	}
}

// NewUpstreamError creates a detailed upstream error
func NewUpstreamError(operation string, statusCode int, providerCode, message string) error {
	return &UpstreamError{
		Operation:    operation,
		StatusCode:   statusCode,
		ProviderCode: providerCode,
		Message:      message,
	}
}

// GenerationFailedError describes a remote task that ended in FAILED
type GenerationFailedError struct {
	TaskID       string
	ProviderCode string
	Message      string
}

// Error implements the error interface
func (e *GenerationFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation task %s failed", e.TaskID)
	}
	return fmt.Sprintf("generation task %s failed: %s", e.TaskID, e.Message)
}

// Is checks if the target error is an ErrGenerationFailed
func (e *GenerationFailedError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// LogFields returns a map of fields for structured logging
func (e *GenerationFailedError) LogFields() map[string]any {
	return map[string]any{
		"error_type":    "generation_failed",
		"task_id":       e.TaskID,
		"provider_code": e.ProviderCode,
		"message":       e.Message,
		"error_code":    CodeGenerationFailed,
	}
}

// NewGenerationFailedError creates a detailed generation failure
func NewGenerationFailedError(taskID, providerCode, message string) error {
	return &GenerationFailedError{TaskID: taskID, ProviderCode: providerCode, Message: message}
}

// UnknownTaskStateError describes a status value outside the provider contract
type UnknownTaskStateError struct {
	TaskID string
	Status string
}

// Error implements the error interface
func (e *UnknownTaskStateError) Error() string {
	return fmt.Sprintf("task %s reported unknown status %q", e.TaskID, e.Status)
}

// Is checks if the target error is an ErrUnknownTaskState
func (e *UnknownTaskStateError) Is(target error) bool {
	return target == ErrUnknownTaskState
}

// LogFields returns a map of fields for structured logging
func (e *UnknownTaskStateError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "unknown_task_state",
		"task_id":    e.TaskID,
		"status":     e.Status,
		"error_code": CodeUnknownTaskState,
	}
}

// NewUnknownTaskStateError creates a detailed unknown task state error
func NewUnknownTaskStateError(taskID, status string) error {
	return &UnknownTaskStateError{TaskID: taskID, Status: status}
}

// GenerationError represents an error raised while finalizing a generation
type GenerationError struct {
	TaskID string
	UserID string
	Stage  string
	Err    error
}

// Error implements the error interface
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s for user %s failed at %s: %v", e.TaskID, e.UserID, e.Stage, e.Err)
}

// Unwrap returns the underlying error
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *GenerationError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "generation_error",
		"task_id":    e.TaskID,
		"user_id":    e.UserID,
		"stage":      e.Stage,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
}

// NewGenerationError creates a detailed generation error
func NewGenerationError(taskID, userID, stage string, err error) error {
	return &GenerationError{TaskID: taskID, UserID: userID, Stage: stage, Err: err}
}

// IsInsufficientCreditsError checks if the error is related to insufficient credits
func IsInsufficientCreditsError(err error) bool {
	return errors.Is(err, ErrInsufficientCredits)
}

// IsInvalidInputError checks if the error was caused by bad caller input
func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFoundError checks if the error is a "not found" error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrGenerationNotFound)
}

// IsTransientUpstreamError checks if the error is an upstream failure worth retrying
func IsTransientUpstreamError(err error) bool {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Transient()
	}
	return false
}
