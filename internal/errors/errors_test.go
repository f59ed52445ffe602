package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{KindIO, "I/O error"},
		{KindCapacityExceeded, "Capacity exceeded"},
		{KindHeaderTruncated, "Header truncated"},
		{KindHeaderUnreadable, "Header unreadable"},
		{KindFrameCorrupt, "Frame corrupt"},
		{KindEmptyInput, "Empty input"},
		{KindInvariantViolation, "Invariant violation"},
		{KindValidationFailed, "Validation failed"},
		{KindDecodeCorrupt, "Decode corrupt"},
		{KindConfig, "Configuration error"},
		{KindCommand, "Command error"},
		{KindCancelled, "Operation cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("ErrorKind.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCoreErrorError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &CoreError{
		Kind:       KindIO,
		Message:    "test message",
		Underlying: underlying,
	}

	got := err.Error()
	expected := "I/O error: test message: underlying error"
	if got != expected {
		t.Errorf("CoreError.Error() = %v, want %v", got, expected)
	}

	err2 := &CoreError{
		Kind:    KindConfig,
		Message: "config issue",
	}

	got2 := err2.Error()
	expected2 := "Configuration error: config issue"
	if got2 != expected2 {
		t.Errorf("CoreError.Error() = %v, want %v", got2, expected2)
	}
}

func TestCoreErrorUnwrap(t *testing.T) {
	underlying := errors.New("inner")
	err := NewIOError("reading frame", underlying)

	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should match the underlying error")
	}
}

func TestCapacityExceededMessage(t *testing.T) {
	err := NewCapacityExceededError(3, 3000, 2331)

	expected := "chunk 3 is 3000 bytes, symbol capacity is 2331 bytes"
	if err.Message != expected {
		t.Errorf("Message = %q, want %q", err.Message, expected)
	}
	if err.Kind != KindCapacityExceeded {
		t.Errorf("Kind = %v, want KindCapacityExceeded", err.Kind)
	}
}

func TestFrameCorruptCarriesIndex(t *testing.T) {
	err := NewFrameCorruptError(7, errors.New("no symbol"))

	if err.Kind != KindFrameCorrupt {
		t.Errorf("Kind = %v, want KindFrameCorrupt", err.Kind)
	}
	if got := err.Message; got != "payload frame 7 did not decode" {
		t.Errorf("Message = %q", got)
	}
}

func TestIsKind(t *testing.T) {
	err := NewHeaderTruncatedError("blob ends early")

	if !IsKind(err, KindHeaderTruncated) {
		t.Error("IsKind() should match KindHeaderTruncated")
	}
	if IsKind(err, KindHeaderUnreadable) {
		t.Error("IsKind() should not match a different kind")
	}
	if IsKind(errors.New("plain"), KindHeaderTruncated) {
		t.Error("IsKind() should not match a non-CoreError")
	}
}

func TestIsKindWrapped(t *testing.T) {
	inner := NewEmptyInputError()
	wrapped := fmt.Errorf("decode: %w", inner)

	if !IsKind(wrapped, KindEmptyInput) {
		t.Error("IsKind() should see through fmt.Errorf wrapping")
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(NewCancelledError()) {
		t.Error("IsCancelled() should be true for a cancellation error")
	}
	if IsCancelled(NewEmptyInputError()) {
		t.Error("IsCancelled() should be false for other kinds")
	}
}

func TestCommandErrorFormats(t *testing.T) {
	err := NewCommandFailedError("ffmpeg", 1, "unknown encoder")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatal("expected an underlying CommandError")
	}
	if cmdErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", cmdErr.ExitCode)
	}

	got := cmdErr.Error()
	expected := "command ffmpeg failed with exit code 1: unknown encoder"
	if got != expected {
		t.Errorf("CommandError.Error() = %q, want %q", got, expected)
	}
}
