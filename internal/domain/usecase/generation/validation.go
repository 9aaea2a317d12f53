package generation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
)

// DefaultMaxPromptLength is the provider's prompt limit in characters
const DefaultMaxPromptLength = 800

// RequestValidator validates generation requests before any credit is touched
type RequestValidator struct {
	maxPromptLength int
}

// NewRequestValidator creates a new RequestValidator
func NewRequestValidator(maxPromptLength int) *RequestValidator {
	if maxPromptLength <= 0 {
		maxPromptLength = DefaultMaxPromptLength
	}
	return &RequestValidator{maxPromptLength: maxPromptLength}
}

// NormalizePrompt trims the prompt and checks it is non-empty and within bounds
func (v *RequestValidator) NormalizePrompt(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", errs.ErrEmptyPrompt
	}
	if n := utf8.RuneCountInString(trimmed); n > v.maxPromptLength {
		return "", fmt.Errorf("%w: %d characters, limit %d", errs.ErrPromptTooLong, n, v.maxPromptLength)
	}
	return trimmed, nil
}

// ValidateGeneration checks the identity and the prompt of a new generation
func (v *RequestValidator) ValidateGeneration(userID, prompt string) (string, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return "", err
	}
	return v.NormalizePrompt(prompt)
}

// ValidateTaskQuery checks the identity and the task id of a status query
func (v *RequestValidator) ValidateTaskQuery(userID, taskID string) error {
	if err := entity.ValidateUserID(userID); err != nil {
		return err
	}
	if strings.TrimSpace(taskID) == "" {
		return errs.ErrInvalidTaskID
	}
	return nil
}
