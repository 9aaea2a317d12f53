package error

import (
	"errors"
	"fmt"
	"testing"
)

func TestBaseErrorTypes(t *testing.T) {
	if ErrInsufficientCredits.Error() != "insufficient credits" {
		t.Errorf("ErrInsufficientCredits has unexpected message: %s", ErrInsufficientCredits.Error())
	}
	if ErrEmptyPrompt.Error() != "invalid input: prompt cannot be empty" {
		t.Errorf("ErrEmptyPrompt has unexpected message: %s", ErrEmptyPrompt.Error())
	}
	if !errors.Is(ErrInvalidCredits, ErrInvalidInput) {
		t.Errorf("ErrInvalidCredits should wrap ErrInvalidInput")
	}
}

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
		kind     string
	}{
		{"InvalidInput", ErrEmptyPrompt, 4000, KindInvalidInput},
		{"Unauthenticated", ErrUnauthenticated, 4010, KindUnauthenticated},
		{"InsufficientCredits", NewInsufficientCreditsError("u1", 1), 4020, KindInsufficientCredits},
		{"NotFound", ErrGenerationNotFound, 4040, KindNotFound},
		{"GenerationFailed", NewGenerationFailedError("T1", "", ""), 4220, KindGenerationFailed},
		{"UnknownTaskState", NewUnknownTaskStateError("T1", "CANCELED"), 5020, KindUnknownTaskState},
		{"Upstream", NewUpstreamError("create task", 503, "", "busy"), 5021, KindUpstream},
		{"Timeout", ErrTimeout, 5040, KindTimeout},
		{"Persistence", ErrPersistence, 5000, KindPersistence},
		{"UnknownError", errors.New("unknown error"), 5000, KindPersistence},
		{"WrappedError", fmt.Errorf("wrapped: %w", ErrUnauthenticated), 4010, KindUnauthenticated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if code := ErrorCode(tc.err); code != tc.expected {
				t.Errorf("ErrorCode(%v) = %d, want %d", tc.err, code, tc.expected)
			}
			if kind := Kind(tc.err); kind != tc.kind {
				t.Errorf("Kind(%v) = %s, want %s", tc.err, kind, tc.kind)
			}
		})
	}
}

func TestInsufficientCreditsError(t *testing.T) {
	err := NewInsufficientCreditsError("user-789", 1)

	expectedErrMsg := "insufficient credits for user user-789: required 1"
	if err.Error() != expectedErrMsg {
		t.Errorf("InsufficientCreditsError.Error() = %s, want %s", err.Error(), expectedErrMsg)
	}

	if !IsInsufficientCreditsError(err) {
		t.Errorf("IsInsufficientCreditsError(err) = false, want true")
	}
}

func TestUpstreamError(t *testing.T) {
	err := NewUpstreamError("create task", 400, "InvalidParameter", "bad size")

	expectedErrMsg := "upstream create task failed with status 400 (InvalidParameter): bad size"
	if err.Error() != expectedErrMsg {
		t.Errorf("UpstreamError.Error() = %s, want %s", err.Error(), expectedErrMsg)
	}

	var upstream *UpstreamError
	if !errors.As(fmt.Errorf("submit: %w", err), &upstream) {
		t.Fatalf("errors.As failed: not an *UpstreamError")
	}
	if upstream.StatusCode != 400 {
		t.Errorf("StatusCode = %d, want 400", upstream.StatusCode)
	}
	if IsTransientUpstreamError(err) {
		t.Errorf("400 should not be transient")
	}
	if !IsTransientUpstreamError(NewUpstreamError("query task", 503, "", "")) {
		t.Errorf("503 should be transient")
	}
	if !IsTransientUpstreamError(NewUpstreamError("query task", 429, "Throttling", "")) {
		t.Errorf("429 should be transient")
	}
}

func TestGenerationError(t *testing.T) {
	genErr := NewGenerationError("T1", "u1", "refund", ErrPersistence)

	expectedErrMsg := "generation T1 for user u1 failed at refund: persistence error"
	if genErr.Error() != expectedErrMsg {
		t.Errorf("GenerationError.Error() = %s, want %s", genErr.Error(), expectedErrMsg)
	}
	if !errors.Is(genErr, ErrPersistence) {
		t.Errorf("errors.Is(genErr, ErrPersistence) = false, want true")
	}

	var cast *GenerationError
	if !errors.As(genErr, &cast) {
		t.Fatalf("errors.As failed: not a *GenerationError")
	}
	fields := cast.LogFields()
	if fields["stage"] != "refund" || fields["error_code"] != CodePersistence {
		t.Errorf("unexpected log fields: %v", fields)
	}
}

func TestErrorHelperFunctions(t *testing.T) {
	if IsInsufficientCreditsError(ErrInvalidInput) {
		t.Errorf("IsInsufficientCreditsError(ErrInvalidInput) = true, want false")
	}
	if !IsInvalidInputError(fmt.Errorf("wrapped: %w", ErrInvalidTaskID)) {
		t.Errorf("IsInvalidInputError(wrapped ErrInvalidTaskID) = false, want true")
	}
	if !IsNotFoundError(fmt.Errorf("wrapped: %w", ErrGenerationNotFound)) {
		t.Errorf("IsNotFoundError(wrapped ErrGenerationNotFound) = false, want true")
	}
	if !errors.Is(NewUnknownTaskStateError("T1", "CANCELED"), ErrUnknownTaskState) {
		t.Errorf("UnknownTaskStateError should match ErrUnknownTaskState")
	}
}
