package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorCreation(t *testing.T) {
	err := New(ErrInvalidArgument, "item count must be positive")
	if err.Code != ErrInvalidArgument {
		t.Errorf("Expected code %s, got %s", ErrInvalidArgument, err.Code)
	}
	if err.Message != "item count must be positive" {
		t.Errorf("Expected message 'item count must be positive', got '%s'", err.Message)
	}
	if err.Details == nil {
		t.Error("Details should not be nil")
	}
	if err.Details.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestErrorMethods(t *testing.T) {
	baseErr := stderrors.New("dial tcp: connection refused")
	err := New(ErrControlPlane, "alloc_segno failed")
	err = err.WithSource(SourceControlPlane)
	err = err.WithCause(baseErr)
	err = err.WithCommitInfo("actor-1", 42, 7)
	err = err.AddInfo("retry_after_seconds", "5")

	if err.Source != SourceControlPlane {
		t.Errorf("Expected source %s, got %s", SourceControlPlane, err.Source)
	}
	if err.Cause != baseErr {
		t.Errorf("Expected cause to be set correctly")
	}
	if err.Details.ActorID != "actor-1" {
		t.Errorf("Expected ActorID 'actor-1', got '%s'", err.Details.ActorID)
	}
	if err.Details.Segno != 42 {
		t.Errorf("Expected Segno 42, got %d", err.Details.Segno)
	}
	if err.Details.WriteCount != 7 {
		t.Errorf("Expected WriteCount 7, got %d", err.Details.WriteCount)
	}
	if v, ok := err.Details.AdditionalInfo["retry_after_seconds"]; !ok || v != "5" {
		t.Errorf("Expected AdditionalInfo['retry_after_seconds'] = '5', got '%s'", v)
	}
}

func TestErrorString(t *testing.T) {
	err1 := New(ErrInterrupted, "hold wait interrupted")
	expected1 := "interrupted: hold wait interrupted"
	if err1.Error() != expected1 {
		t.Errorf("Expected '%s', got '%s'", expected1, err1.Error())
	}

	cause := fmt.Errorf("segment write failed")
	err2 := New(ErrIO, "commit pipeline failed").WithCause(cause)
	expected2 := "io_error: commit pipeline failed: segment write failed"
	if err2.Error() != expected2 {
		t.Errorf("Expected '%s', got '%s'", expected2, err2.Error())
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrInvalidArgument, "bad count")
	originalTime := err.Details.Timestamp

	time.Sleep(10 * time.Millisecond)

	newDetails := &ErrorDetails{
		ActorID:        "actor-2",
		WriteCount:     3,
		AdditionalInfo: map[string]string{"key": "value"},
	}

	err = err.WithDetails(newDetails)

	if err.Details.ActorID != "actor-2" {
		t.Errorf("Expected ActorID 'actor-2', got '%s'", err.Details.ActorID)
	}
	if err.Details.WriteCount != 3 {
		t.Errorf("Expected WriteCount 3, got %d", err.Details.WriteCount)
	}
	if err.Details.Timestamp != originalTime {
		t.Error("Expected original timestamp to be preserved")
	}

	err = err.WithDetails(nil)
	if err.Details == nil {
		t.Error("WithDetails(nil) should not set Details to nil")
	}
}

func TestIsCode(t *testing.T) {
	err := New(ErrControlPlane, "rpc failed")
	if !IsCode(err, ErrControlPlane) {
		t.Error("expected IsCode to match ErrControlPlane")
	}
	if IsCode(err, ErrIO) {
		t.Error("expected IsCode to not match ErrIO")
	}
	if IsCode(stderrors.New("plain"), ErrControlPlane) {
		t.Error("expected IsCode to return false for a non-*Error")
	}
}
